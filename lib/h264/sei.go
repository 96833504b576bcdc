package h264

import "github.com/depp/assetprep/lib/bitstream"

// PicTimingSEI returns an SEI NAL unit, without the start code, containing a
// picture timing message for a picture the given number of frames after the
// last IDR picture. The syntax depends on the SPS HRD parameters.
func PicTimingSEI(s *SPS, framesSinceIDR int) []byte {
	var w bitstream.Writer
	if h := s.HRD(); h != nil {
		n := int(h.CPBRemovalDelayLengthMinus1) + 1
		w.Bits(uint32(2*framesSinceIDR)&(1<<uint(n)-1), n)
		n = int(h.DPBOutputDelayLengthMinus1) + 1
		w.Bits(2, n)
	}
	if s.VUI != nil && s.VUI.PicStruct {
		w.Bits(0, 4)  // pic_struct: frame
		w.Flag(false) // clock_timestamp_flag
	}
	if !w.ByteAligned() {
		w.Bits(1, 1)
		for !w.ByteAligned() {
			w.Bits(0, 1)
		}
	}
	payload := w.Bytes()
	rbsp := []byte{seiPicTiming}
	size := len(payload)
	for ; size >= 255; size -= 255 {
		rbsp = append(rbsp, 0xff)
	}
	rbsp = append(rbsp, byte(size))
	rbsp = append(rbsp, payload...)
	rbsp = append(rbsp, 0x80)
	return append([]byte{NALSEI}, InsertEmulation(rbsp)...)
}
