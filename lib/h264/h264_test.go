package h264

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/depp/assetprep/lib/bitstream"
)

func TestEmulation(t *testing.T) {
	cases := []struct {
		rbsp, nal []byte
	}{
		{[]byte{1, 2, 3}, []byte{1, 2, 3}},
		{[]byte{0, 0, 1}, []byte{0, 0, 3, 1}},
		{[]byte{0, 0, 3}, []byte{0, 0, 3, 3}},
		{[]byte{0, 0, 4}, []byte{0, 0, 4}},
		{[]byte{0, 0, 0, 0}, []byte{0, 0, 3, 0, 0}},
		{[]byte{5, 0, 0, 2, 0, 0, 0}, []byte{5, 0, 0, 3, 2, 0, 0, 3, 0}},
	}
	for _, c := range cases {
		if nal := InsertEmulation(c.rbsp); !bytes.Equal(nal, c.nal) {
			t.Errorf("InsertEmulation(%x) = %x, expect %x", c.rbsp, nal, c.nal)
		}
		if rbsp := StripEmulation(c.nal); !bytes.Equal(rbsp, c.rbsp) {
			t.Errorf("StripEmulation(%x) = %x, expect %x", c.nal, rbsp, c.rbsp)
		}
	}
}

func TestSplitNAL(t *testing.T) {
	data := []byte{
		0xaa, 0, 0, 0, 1, 9, 0xf0,
		0, 0, 1, 0x67, 1, 2, 0, 0,
		0, 0, 0, 1, 0x65, 0, 0, 3, 1,
	}
	want := [][]byte{
		{9, 0xf0},
		{0x67, 1, 2},
		{0x65, 0, 0, 3, 1},
	}
	if nals := SplitNAL(data); !reflect.DeepEqual(nals, want) {
		t.Errorf("SplitNAL = %x, expect %x", nals, want)
	}
	if nals := SplitNAL([]byte{1, 2, 3}); nals != nil {
		t.Errorf("SplitNAL without start code = %x, expect nil", nals)
	}
}

func writeCanonicalHRD(w *bitstream.Writer) {
	w.UE(0)      // cpb_cnt_minus1
	w.Bits(1, 4) // bit_rate_scale
	w.Bits(3, 4) // cpb_size_scale
	w.UE(15624)
	w.UE(15624)
	w.Flag(false)
	w.Bits(17, 5)
	w.Bits(6, 5)
	w.Bits(6, 5)
	w.Bits(24, 5)
}

// makeSPS returns a Main profile SPS NAL unit for a 480x272 stream.
func makeSPS(hrd bool) []byte {
	var w bitstream.Writer
	w.Bits(77, 8)
	w.Bits(0x40, 8)
	w.Bits(21, 8)
	w.UE(0)       // seq_parameter_set_id
	w.UE(0)       // log2_max_frame_num_minus4
	w.UE(2)       // pic_order_cnt_type
	w.UE(1)       // max_num_ref_frames
	w.Flag(false) // gaps_in_frame_num_value_allowed_flag
	w.UE(29)      // pic_width_in_mbs_minus1
	w.UE(16)      // pic_height_in_map_units_minus1
	w.Flag(true)  // frame_mbs_only_flag
	w.Flag(true)  // direct_8x8_inference_flag
	w.Flag(false) // frame_cropping_flag
	w.Flag(true)  // vui_parameters_present_flag
	w.Flag(false) // aspect_ratio_info_present_flag
	w.Flag(false) // overscan_info_present_flag
	w.Flag(false) // video_signal_type_present_flag
	w.Flag(false) // chroma_loc_info_present_flag
	w.Flag(true)  // timing_info_present_flag
	w.Bits(1001, 32)
	w.Bits(60000, 32)
	w.Flag(true)
	if hrd {
		w.Flag(true)
		writeCanonicalHRD(&w)
		w.Flag(true)
		writeCanonicalHRD(&w)
		w.Flag(false) // low_delay_hrd_flag
	} else {
		w.Flag(false)
		w.Flag(false)
	}
	w.Flag(false) // pic_struct_present_flag
	w.Flag(false) // bitstream_restriction_flag
	w.TrailingBits()
	return append([]byte{0x67}, InsertEmulation(w.Bytes())...)
}

func checkEmulation(t *testing.T, nal []byte) {
	t.Helper()
	for i := 0; i+2 < len(nal); i++ {
		if nal[i] == 0 && nal[i+1] == 0 && nal[i+2] < 3 {
			t.Errorf("NAL unit contains start code prefix at offset %d: %x", i, nal)
			return
		}
	}
}

func TestRewriteSPS(t *testing.T) {
	in := makeSPS(false)
	out, s, err := RewriteSPS(in)
	if err != nil {
		t.Fatal(err)
	}
	if want := makeSPS(true); !bytes.Equal(out, want) {
		t.Errorf("RewriteSPS:\ngot    %x\nexpect %x", out, want)
	}
	if s.VUI.NALHRD == nil || s.VUI.VCLHRD == nil {
		t.Error("HRD parameters missing")
	}
	if w, h := s.Size(); w != 480 || h != 272 {
		t.Errorf("size = %dx%d, expect 480x272", w, h)
	}
	checkEmulation(t, out)

	out2, _, err := RewriteSPS(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, out2) {
		t.Errorf("rewrite is not idempotent:\nfirst  %x\nsecond %x", out, out2)
	}
}

func TestRewriteSPSPOC(t *testing.T) {
	// Exercise the picture order count type 1 syntax, cropping, and a VUI
	// with every optional section.
	overscan := true
	s := SPS{
		Header:                    0x67,
		ProfileIDC:                77,
		ConstraintFlags:           0x40,
		LevelIDC:                  21,
		PicOrderCntType:           1,
		OffsetForNonRefPic:        -3,
		OffsetForTopToBottom:      2,
		OffsetForRefFrame:         []int32{0, -1, 5},
		MaxNumRefFrames:           3,
		PicWidthInMBsMinus1:       119,
		PicHeightInMapUnitsMinus1: 67,
		FrameMBsOnly:              true,
		Direct8x8Inference:        true,
		Crop:                      &Crop{Bottom: 4},
		VUI: &VUI{
			AspectRatio: &AspectRatio{IDC: 255, SARWidth: 4, SARHeight: 3},
			Overscan:    &overscan,
			VideoSignal: &VideoSignal{
				Format:      5,
				Description: &ColorDescription{1, 1, 1},
			},
			ChromaLoc:   &ChromaLoc{},
			Timing:      &Timing{NumUnitsInTick: 1, TimeScale: 60, FixedFrameRate: true},
			NALHRD:      &HRD{CPB: []CPB{{100, 200, true}, {300, 400, false}}, TimeOffsetLength: 24},
			PicStruct:   true,
			Restriction: &Restriction{MaxNumReorderFrames: 2, MaxDecFrameBuffering: 3},
		},
	}
	in := s.Encode()
	p, err := ParseSPS(in)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p, &s) {
		t.Errorf("ParseSPS:\ngot    %+v\nexpect %+v", p, &s)
	}
	if w, h := p.Size(); w != 1920 || h != 1080 {
		t.Errorf("size = %dx%d, expect 1920x1080", w, h)
	}
	out, p, err := RewriteSPS(in)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p.VUI.NALHRD, s.VUI.NALHRD) {
		t.Error("existing NAL HRD was modified")
	}
	if !reflect.DeepEqual(p.VUI.VCLHRD, CanonicalHRD()) {
		t.Error("VCL HRD is not canonical")
	}
	checkEmulation(t, out)
}

func TestSize(t *testing.T) {
	cases := []struct {
		sps           SPS
		width, height int
	}{
		{SPS{PicWidthInMBsMinus1: 29, PicHeightInMapUnitsMinus1: 16, FrameMBsOnly: true}, 480, 272},
		{SPS{PicWidthInMBsMinus1: 29, PicHeightInMapUnitsMinus1: 16}, 480, 544},
		{SPS{PicWidthInMBsMinus1: 29, PicHeightInMapUnitsMinus1: 16, Crop: &Crop{1, 2, 1, 0}}, 474, 540},
	}
	for _, c := range cases {
		if w, h := c.sps.Size(); w != c.width || h != c.height {
			t.Errorf("Size = %dx%d, expect %dx%d", w, h, c.width, c.height)
		}
	}
}

func TestParseSPSErrors(t *testing.T) {
	good := makeSPS(false)
	badProfile := append([]byte{}, good...)
	badProfile[1] = 66
	badConstraint := append([]byte{}, good...)
	badConstraint[2] = 0
	badLevel := append([]byte{}, good...)
	badLevel[3] = 30
	extra := append(append([]byte{}, good...), 0x80)
	noStop := append([]byte{}, good...)
	last := noStop[len(noStop)-1]
	noStop[len(noStop)-1] = last & (last - 1)
	cases := []struct {
		name string
		nal  []byte
	}{
		{"Profile", badProfile},
		{"Constraint", badConstraint},
		{"Level", badLevel},
		{"Truncated", good[:len(good)-3]},
		{"Extra", extra},
		{"NoStopBit", noStop},
		{"NotSPS", []byte{0x68, 0xce}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ParseSPS(c.nal); err == nil {
				t.Error("no error")
			}
		})
	}
}

func TestPicTimingSEI(t *testing.T) {
	_, s, err := RewriteSPS(makeSPS(false))
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []struct {
		frames int
		nal    []byte
	}{
		{0, []byte{6, 1, 2, 0x00, 0x0a, 0x80}},
		{1, []byte{6, 1, 2, 0x04, 0x0a, 0x80}},
		{3, []byte{6, 1, 2, 0x0c, 0x0a, 0x80}},
		{64, []byte{6, 1, 2, 0x00, 0x0a, 0x80}},
	} {
		if nal := PicTimingSEI(s, c.frames); !bytes.Equal(nal, c.nal) {
			t.Errorf("PicTimingSEI(%d) = %x, expect %x", c.frames, nal, c.nal)
		}
	}
}

func join(nals ...[]byte) []byte {
	var b []byte
	for _, nal := range nals {
		b = append(b, StartCode...)
		b = append(b, nal...)
	}
	return b
}

func TestRewriter(t *testing.T) {
	delim := []byte{9, 0xf0}
	pps := []byte{0x68, 0xce, 0x38, 0x80}
	userData := []byte{6, 5, 1, 0xaa, 0x80}
	idr := []byte{0x65, 0x88, 0x84}
	slice := []byte{0x41, 0x9a}
	sps := makeSPS(false)
	var rw Rewriter
	out, err := rw.Rewrite(join(delim, sps, pps, userData, idr))
	if err != nil {
		t.Fatal(err)
	}
	want := join(delim, makeSPS(true), pps, []byte{6, 1, 2, 0, 0x0a, 0x80}, idr)
	if !bytes.Equal(out, want) {
		t.Errorf("first access unit:\ngot    %x\nexpect %x", out, want)
	}
	if w, h := rw.Size(); w != 480 || h != 272 {
		t.Errorf("size = %dx%d, expect 480x272", w, h)
	}
	out, err = rw.Rewrite(join(delim, slice))
	if err != nil {
		t.Fatal(err)
	}
	want = join(delim, []byte{6, 1, 2, 4, 0x0a, 0x80}, slice)
	if !bytes.Equal(out, want) {
		t.Errorf("second access unit:\ngot    %x\nexpect %x", out, want)
	}

	var rw2 Rewriter
	if _, err := rw2.Rewrite(join(delim, slice)); err == nil {
		t.Error("slice before SPS: no error")
	}
}
