package bind_group_provider

import "fmt"

// BufferWrite describes a queue upload into the buffer bound at a binding of a BindGroupProvider.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Data     []byte
}

// WriteBuffers uploads every write in order, stopping at the first failure.
//
// Parameters:
//   - writes: the uploads to perform
//
// Returns:
//   - error: ErrMissingBuffer or the buffer's write error
func WriteBuffers(writes []BufferWrite) error {
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			return fmt.Errorf("%s binding %d: %w", w.Provider.Label(), w.Binding, ErrMissingBuffer)
		}
		if err := buf.Write(w.Data); err != nil {
			return err
		}
	}
	return nil
}
