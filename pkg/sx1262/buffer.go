package sx1262

// WritePayload stages a packet at offset 0, the power-on TX base
// address. Callers that moved the TX region with SetBufferBaseAddress
// use WriteBuffer with their own offset instead.
func (d *Device) WritePayload(data []byte) error {
	return d.WriteBuffer(0, data)
}

// ReadPayload locates the last received packet with GetRxBufferStatus
// and reads it out of the data buffer. Returns nil when the chip
// reports an empty packet.
func (d *Device) ReadPayload() ([]byte, error) {
	st, err := d.GetRxBufferStatus()
	if err != nil {
		return nil, err
	}
	if st.PayloadLength == 0 {
		return nil, nil
	}
	return d.ReadBuffer(st.BufferStart, int(st.PayloadLength))
}
