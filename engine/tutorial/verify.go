package tutorial

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-compute/common"
)

const (
	// minChunk is the smallest slice range handed to a single worker task.
	minChunk = 1024

	// PixelTolerance is the per channel difference VerifyImage accepts. Clear colors that fall
	// exactly between two 8 bit levels may round either way on the device.
	PixelTolerance = 1
)

// MismatchError reports the first index at which a readback differs from the expected value.
type MismatchError struct {
	Check string
	Index int
	Want  uint32
	Got   uint32
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s mismatch at index %d: want %d, got %d", e.Check, e.Index, e.Want, e.Got)
}

// Verifier checks readback data in parallel chunks on a worker pool.
type Verifier struct {
	workers int
	pool    worker.DynamicWorkerPool
}

// NewVerifier creates a verifier backed by a dynamic worker pool.
//
// Parameters:
//   - workers: the maximum number of pool workers, at least 1
//
// Returns:
//   - *Verifier: the verifier
func NewVerifier(workers int) *Verifier {
	workers = max(workers, 1)
	return &Verifier{
		workers: workers,
		pool:    worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
	}
}

// VerifyCopy checks that dst holds exactly the values of src.
//
// Parameters:
//   - src: the uploaded values
//   - dst: the values read back from the copy destination
//
// Returns:
//   - error: a *MismatchError for the first differing index, or a length error
func (v *Verifier) VerifyCopy(src, dst []uint32) error {
	if len(src) != len(dst) {
		return fmt.Errorf("copy length mismatch: want %d, got %d", len(src), len(dst))
	}
	return v.verify("copy", len(src), equal, func(i int) (uint32, uint32) {
		return src[i], dst[i]
	})
}

// VerifyMultiply checks that out[i] == in[i]*factor for every index, with u32 wraparound.
//
// Parameters:
//   - in: the uploaded values
//   - out: the values read back after the compute pass
//   - factor: the multiplier the shader applied
//
// Returns:
//   - error: a *MismatchError for the first differing index, or a length error
func (v *Verifier) VerifyMultiply(in, out []uint32, factor uint32) error {
	if len(in) != len(out) {
		return fmt.Errorf("multiply length mismatch: want %d, got %d", len(in), len(out))
	}
	return v.verify("multiply", len(in), equal, func(i int) (uint32, uint32) {
		return in[i] * factor, out[i]
	})
}

// VerifyImage checks that every pixel of img is within PixelTolerance of want on every channel.
// Pixels are reported packed as 0xRRGGBBAA by their row-major index.
//
// Parameters:
//   - img: the decoded readback
//   - want: the expected pixel
//
// Returns:
//   - error: a *MismatchError for the first differing pixel
func (v *Verifier) VerifyImage(img *image.NRGBA, want color.NRGBA) error {
	width := img.Rect.Dx()
	packedWant := packRGBA(want)
	return v.verify("pixel", width*img.Rect.Dy(), pixelsMatch, func(i int) (uint32, uint32) {
		x, y := i%width, i/width
		return packedWant, packRGBA(img.NRGBAAt(img.Rect.Min.X+x, img.Rect.Min.Y+y))
	})
}

// verify splits [0, n) into chunks checked concurrently on the pool and returns the lowest index
// at which match fails.
func (v *Verifier) verify(check string, n int, match func(want, got uint32) bool, at func(i int) (want, got uint32)) error {
	if n == 0 {
		return nil
	}
	chunk := max(int(common.CeilDiv(uint32(n), uint32(v.workers))), minChunk)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first *MismatchError
	)
	taskID := 0
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		id := taskID
		taskID++
		v.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := start; i < end; i++ {
					want, got := at(i)
					if match(want, got) {
						continue
					}
					mu.Lock()
					if first == nil || i < first.Index {
						first = &MismatchError{Check: check, Index: i, Want: want, Got: got}
					}
					mu.Unlock()
					return nil, nil
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	if first != nil {
		return first
	}
	return nil
}

func equal(want, got uint32) bool {
	return want == got
}

// pixelsMatch compares two packed pixels channel by channel.
func pixelsMatch(want, got uint32) bool {
	for shift := 0; shift < 32; shift += 8 {
		w, g := int(want>>shift&0xFF), int(got>>shift&0xFF)
		if w-g > PixelTolerance || g-w > PixelTolerance {
			return false
		}
	}
	return true
}

func packRGBA(c color.NRGBA) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}
