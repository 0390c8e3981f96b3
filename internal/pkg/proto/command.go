package proto

// Command mirrors the controller's fixed command packet layout: three
// 32-bit header words (initialized flag, target register, payload length)
// followed by up to 8 payload bytes. The header stays host-side; only the
// payload plus a variant-specific checksum trailer goes on the wire, which
// is why the encoder appends no checksum itself.
type Command struct {
	Initialized uint32
	Reg         uint32
	Length      uint32
	Data        [MaxCmdLen]byte
}

// NewCommand builds a command packet targeting the given register.
// Payloads longer than 8 bytes fail with ErrPayloadTooLarge.
func NewCommand(reg uint16, payload []byte) (Command, error) {
	if len(payload) > MaxCmdLen {
		return Command{}, ErrPayloadTooLarge
	}

	cmd := Command{
		Initialized: 1,
		Reg:         uint32(reg),
		Length:      uint32(len(payload)),
	}
	copy(cmd.Data[:], payload)
	return cmd, nil
}
