package h264

import (
	"errors"
	"fmt"

	"github.com/depp/assetprep/lib/bitstream"
)

// Required SPS header values.
const (
	ProfileMain       = 77
	ConstraintFlags   = 0x40
	Level21           = 21
	aspectExtendedSAR = 255
	maxRefFramesInPOC = 255
	maxCPBCount       = 32
	defaultCropUnitX  = 2
	defaultCropUnitY  = 2
	macroblockSize    = 16
)

// HRD is the hypothetical reference decoder parameters, hrd_parameters().
type HRD struct {
	BitRateScale uint32
	CPBSizeScale uint32
	CPB          []CPB

	// Each of these fields holds the coded value, which is one less than the
	// length in bits, except for TimeOffsetLength.
	InitialCPBRemovalDelayLengthMinus1 uint32
	CPBRemovalDelayLengthMinus1        uint32
	DPBOutputDelayLengthMinus1         uint32
	TimeOffsetLength                   uint32
}

// CPB is the parameters for one coded picture buffer specification.
type CPB struct {
	BitRateValueMinus1 uint32
	CPBSizeValueMinus1 uint32
	CBR                bool
}

// CanonicalHRD returns the HRD parameters inserted into streams which lack
// them.
func CanonicalHRD() *HRD {
	return &HRD{
		BitRateScale: 1,
		CPBSizeScale: 3,
		CPB: []CPB{{
			BitRateValueMinus1: 15624,
			CPBSizeValueMinus1: 15624,
		}},
		InitialCPBRemovalDelayLengthMinus1: 17,
		CPBRemovalDelayLengthMinus1:        6,
		DPBOutputDelayLengthMinus1:         6,
		TimeOffsetLength:                   24,
	}
}

func (h *HRD) read(r *bitstream.Reader) error {
	n := r.UE()
	if r.Err() == nil && n >= maxCPBCount {
		return fmt.Errorf("invalid cpb_cnt_minus1: %d", n)
	}
	h.BitRateScale = r.Bits(4)
	h.CPBSizeScale = r.Bits(4)
	h.CPB = make([]CPB, n+1)
	for i := range h.CPB {
		c := &h.CPB[i]
		c.BitRateValueMinus1 = r.UE()
		c.CPBSizeValueMinus1 = r.UE()
		c.CBR = r.Flag()
	}
	h.InitialCPBRemovalDelayLengthMinus1 = r.Bits(5)
	h.CPBRemovalDelayLengthMinus1 = r.Bits(5)
	h.DPBOutputDelayLengthMinus1 = r.Bits(5)
	h.TimeOffsetLength = r.Bits(5)
	return r.Err()
}

func (h *HRD) write(w *bitstream.Writer) {
	w.UE(uint32(len(h.CPB) - 1))
	w.Bits(h.BitRateScale, 4)
	w.Bits(h.CPBSizeScale, 4)
	for _, c := range h.CPB {
		w.UE(c.BitRateValueMinus1)
		w.UE(c.CPBSizeValueMinus1)
		w.Flag(c.CBR)
	}
	w.Bits(h.InitialCPBRemovalDelayLengthMinus1, 5)
	w.Bits(h.CPBRemovalDelayLengthMinus1, 5)
	w.Bits(h.DPBOutputDelayLengthMinus1, 5)
	w.Bits(h.TimeOffsetLength, 5)
}

// VUI is the video usability information, vui_parameters(). Optional
// sections are nil when absent.
type VUI struct {
	AspectRatio *AspectRatio
	Overscan    *bool // overscan_appropriate_flag
	VideoSignal *VideoSignal
	ChromaLoc   *ChromaLoc
	Timing      *Timing
	NALHRD      *HRD
	VCLHRD      *HRD
	LowDelayHRD bool
	PicStruct   bool
	Restriction *Restriction
}

type AspectRatio struct {
	IDC       uint32
	SARWidth  uint32
	SARHeight uint32
}

type VideoSignal struct {
	Format      uint32
	FullRange   bool
	Description *ColorDescription
}

type ColorDescription struct {
	Primaries               uint32
	TransferCharacteristics uint32
	MatrixCoefficients      uint32
}

type ChromaLoc struct {
	TopField    uint32
	BottomField uint32
}

type Timing struct {
	NumUnitsInTick uint32
	TimeScale      uint32
	FixedFrameRate bool
}

// Restriction is the bitstream restriction section of the VUI.
type Restriction struct {
	MotionVectorsOverPicBoundaries bool
	MaxBytesPerPicDenom            uint32
	MaxBitsPerMBDenom              uint32
	Log2MaxMVLengthHorizontal      uint32
	Log2MaxMVLengthVertical        uint32
	MaxNumReorderFrames            uint32
	MaxDecFrameBuffering           uint32
}

func (v *VUI) read(r *bitstream.Reader) error {
	if r.Flag() {
		a := &AspectRatio{IDC: r.Bits(8)}
		if a.IDC == aspectExtendedSAR {
			a.SARWidth = r.Bits(16)
			a.SARHeight = r.Bits(16)
		}
		v.AspectRatio = a
	}
	if r.Flag() {
		f := r.Flag()
		v.Overscan = &f
	}
	if r.Flag() {
		s := &VideoSignal{
			Format:    r.Bits(3),
			FullRange: r.Flag(),
		}
		if r.Flag() {
			s.Description = &ColorDescription{
				Primaries:               r.Bits(8),
				TransferCharacteristics: r.Bits(8),
				MatrixCoefficients:      r.Bits(8),
			}
		}
		v.VideoSignal = s
	}
	if r.Flag() {
		v.ChromaLoc = &ChromaLoc{
			TopField:    r.UE(),
			BottomField: r.UE(),
		}
	}
	if r.Flag() {
		v.Timing = &Timing{
			NumUnitsInTick: r.Bits(32),
			TimeScale:      r.Bits(32),
			FixedFrameRate: r.Flag(),
		}
	}
	if r.Flag() {
		v.NALHRD = new(HRD)
		if err := v.NALHRD.read(r); err != nil {
			return fmt.Errorf("nal_hrd_parameters: %w", err)
		}
	}
	if r.Flag() {
		v.VCLHRD = new(HRD)
		if err := v.VCLHRD.read(r); err != nil {
			return fmt.Errorf("vcl_hrd_parameters: %w", err)
		}
	}
	if v.NALHRD != nil || v.VCLHRD != nil {
		v.LowDelayHRD = r.Flag()
	}
	v.PicStruct = r.Flag()
	if r.Flag() {
		v.Restriction = &Restriction{
			MotionVectorsOverPicBoundaries: r.Flag(),
			MaxBytesPerPicDenom:            r.UE(),
			MaxBitsPerMBDenom:              r.UE(),
			Log2MaxMVLengthHorizontal:      r.UE(),
			Log2MaxMVLengthVertical:        r.UE(),
			MaxNumReorderFrames:            r.UE(),
			MaxDecFrameBuffering:           r.UE(),
		}
	}
	return r.Err()
}

func (v *VUI) write(w *bitstream.Writer) {
	w.Flag(v.AspectRatio != nil)
	if a := v.AspectRatio; a != nil {
		w.Bits(a.IDC, 8)
		if a.IDC == aspectExtendedSAR {
			w.Bits(a.SARWidth, 16)
			w.Bits(a.SARHeight, 16)
		}
	}
	w.Flag(v.Overscan != nil)
	if v.Overscan != nil {
		w.Flag(*v.Overscan)
	}
	w.Flag(v.VideoSignal != nil)
	if s := v.VideoSignal; s != nil {
		w.Bits(s.Format, 3)
		w.Flag(s.FullRange)
		w.Flag(s.Description != nil)
		if d := s.Description; d != nil {
			w.Bits(d.Primaries, 8)
			w.Bits(d.TransferCharacteristics, 8)
			w.Bits(d.MatrixCoefficients, 8)
		}
	}
	w.Flag(v.ChromaLoc != nil)
	if c := v.ChromaLoc; c != nil {
		w.UE(c.TopField)
		w.UE(c.BottomField)
	}
	w.Flag(v.Timing != nil)
	if t := v.Timing; t != nil {
		w.Bits(t.NumUnitsInTick, 32)
		w.Bits(t.TimeScale, 32)
		w.Flag(t.FixedFrameRate)
	}
	w.Flag(v.NALHRD != nil)
	if v.NALHRD != nil {
		v.NALHRD.write(w)
	}
	w.Flag(v.VCLHRD != nil)
	if v.VCLHRD != nil {
		v.VCLHRD.write(w)
	}
	if v.NALHRD != nil || v.VCLHRD != nil {
		w.Flag(v.LowDelayHRD)
	}
	w.Flag(v.PicStruct)
	w.Flag(v.Restriction != nil)
	if b := v.Restriction; b != nil {
		w.Flag(b.MotionVectorsOverPicBoundaries)
		w.UE(b.MaxBytesPerPicDenom)
		w.UE(b.MaxBitsPerMBDenom)
		w.UE(b.Log2MaxMVLengthHorizontal)
		w.UE(b.Log2MaxMVLengthVertical)
		w.UE(b.MaxNumReorderFrames)
		w.UE(b.MaxDecFrameBuffering)
	}
}

// Crop is the frame cropping rectangle, in crop units.
type Crop struct {
	Left, Right, Top, Bottom uint32
}

// SPS is a sequence parameter set, seq_parameter_set_rbsp(). Only the Main
// profile syntax is supported.
type SPS struct {
	Header          byte // NAL unit header
	ProfileIDC      uint32
	ConstraintFlags uint32
	LevelIDC        uint32
	ID              uint32

	Log2MaxFrameNumMinus4 uint32
	PicOrderCntType       uint32

	// Used when PicOrderCntType is 0.
	Log2MaxPicOrderCntLSBMinus4 uint32

	// Used when PicOrderCntType is 1.
	DeltaPicOrderAlwaysZero bool
	OffsetForNonRefPic      int32
	OffsetForTopToBottom    int32
	OffsetForRefFrame       []int32

	MaxNumRefFrames           uint32
	GapsInFrameNumAllowed     bool
	PicWidthInMBsMinus1       uint32
	PicHeightInMapUnitsMinus1 uint32
	FrameMBsOnly              bool
	MBAdaptiveFrameField      bool
	Direct8x8Inference        bool
	Crop                      *Crop
	VUI                       *VUI
}

// ParseSPS parses a sequence parameter set NAL unit, without the start code.
func ParseSPS(nal []byte) (*SPS, error) {
	if NALType(nal) != NALSPS {
		return nil, fmt.Errorf("NAL unit type %d is not an SPS", NALType(nal))
	}
	s := SPS{Header: nal[0]}
	r := bitstream.NewReader(StripEmulation(nal[1:]))
	if err := s.read(r); err != nil {
		if errors.Is(err, bitstream.ErrEOF) {
			return nil, fmt.Errorf("SPS is truncated: %w", err)
		}
		return nil, err
	}
	return &s, nil
}

func checkValue(name string, value, expect uint32) error {
	if value != expect {
		return fmt.Errorf("invalid %s: %d, expected %d", name, value, expect)
	}
	return nil
}

func (s *SPS) read(r *bitstream.Reader) error {
	s.ProfileIDC = r.Bits(8)
	s.ConstraintFlags = r.Bits(8)
	s.LevelIDC = r.Bits(8)
	if err := r.Err(); err != nil {
		return err
	}
	if err := checkValue("profile_idc", s.ProfileIDC, ProfileMain); err != nil {
		return err
	}
	if err := checkValue("constraint_set_flags", s.ConstraintFlags, ConstraintFlags); err != nil {
		return err
	}
	if err := checkValue("level_idc", s.LevelIDC, Level21); err != nil {
		return err
	}
	s.ID = r.UE()
	s.Log2MaxFrameNumMinus4 = r.UE()
	s.PicOrderCntType = r.UE()
	switch s.PicOrderCntType {
	case 0:
		s.Log2MaxPicOrderCntLSBMinus4 = r.UE()
	case 1:
		s.DeltaPicOrderAlwaysZero = r.Flag()
		s.OffsetForNonRefPic = r.SE()
		s.OffsetForTopToBottom = r.SE()
		n := r.UE()
		if n > maxRefFramesInPOC {
			return fmt.Errorf("invalid num_ref_frames_in_pic_order_cnt_cycle: %d", n)
		}
		s.OffsetForRefFrame = make([]int32, n)
		for i := range s.OffsetForRefFrame {
			s.OffsetForRefFrame[i] = r.SE()
		}
	case 2:
	default:
		if r.Err() == nil {
			return fmt.Errorf("invalid pic_order_cnt_type: %d", s.PicOrderCntType)
		}
	}
	s.MaxNumRefFrames = r.UE()
	s.GapsInFrameNumAllowed = r.Flag()
	s.PicWidthInMBsMinus1 = r.UE()
	s.PicHeightInMapUnitsMinus1 = r.UE()
	s.FrameMBsOnly = r.Flag()
	if !s.FrameMBsOnly {
		s.MBAdaptiveFrameField = r.Flag()
	}
	s.Direct8x8Inference = r.Flag()
	if r.Flag() {
		s.Crop = &Crop{
			Left:   r.UE(),
			Right:  r.UE(),
			Top:    r.UE(),
			Bottom: r.UE(),
		}
	}
	if r.Flag() {
		s.VUI = new(VUI)
		if err := s.VUI.read(r); err != nil {
			return fmt.Errorf("vui_parameters: %w", err)
		}
	}
	if err := r.Err(); err != nil {
		return err
	}
	return readTrailingBits(r)
}

// readTrailingBits reads rbsp_trailing_bits and checks that it is the end of
// the data.
func readTrailingBits(r *bitstream.Reader) error {
	if !r.Flag() {
		if err := r.Err(); err != nil {
			return err
		}
		return errors.New("missing rbsp_stop_one_bit")
	}
	for !r.ByteAligned() {
		if r.Flag() {
			return errors.New("nonzero rbsp_alignment_zero_bit")
		}
	}
	if n := r.Remaining(); n != 0 {
		return fmt.Errorf("%d bytes of extra data after rbsp_trailing_bits", n/8)
	}
	return r.Err()
}

func (s *SPS) write(w *bitstream.Writer) {
	w.Bits(s.ProfileIDC, 8)
	w.Bits(s.ConstraintFlags, 8)
	w.Bits(s.LevelIDC, 8)
	w.UE(s.ID)
	w.UE(s.Log2MaxFrameNumMinus4)
	w.UE(s.PicOrderCntType)
	switch s.PicOrderCntType {
	case 0:
		w.UE(s.Log2MaxPicOrderCntLSBMinus4)
	case 1:
		w.Flag(s.DeltaPicOrderAlwaysZero)
		w.SE(s.OffsetForNonRefPic)
		w.SE(s.OffsetForTopToBottom)
		w.UE(uint32(len(s.OffsetForRefFrame)))
		for _, v := range s.OffsetForRefFrame {
			w.SE(v)
		}
	}
	w.UE(s.MaxNumRefFrames)
	w.Flag(s.GapsInFrameNumAllowed)
	w.UE(s.PicWidthInMBsMinus1)
	w.UE(s.PicHeightInMapUnitsMinus1)
	w.Flag(s.FrameMBsOnly)
	if !s.FrameMBsOnly {
		w.Flag(s.MBAdaptiveFrameField)
	}
	w.Flag(s.Direct8x8Inference)
	w.Flag(s.Crop != nil)
	if c := s.Crop; c != nil {
		w.UE(c.Left)
		w.UE(c.Right)
		w.UE(c.Top)
		w.UE(c.Bottom)
	}
	w.Flag(s.VUI != nil)
	if s.VUI != nil {
		s.VUI.write(w)
	}
	w.TrailingBits()
}

// Encode returns the SPS as a NAL unit, without the start code.
func (s *SPS) Encode() []byte {
	var w bitstream.Writer
	s.write(&w)
	return append([]byte{s.Header}, InsertEmulation(w.Bytes())...)
}

// SetCanonicalHRD adds the canonical HRD parameters to the VUI for any HRD
// which is absent. Existing HRD parameters are kept.
func (s *SPS) SetCanonicalHRD() {
	if s.VUI == nil {
		s.VUI = new(VUI)
	}
	if s.VUI.NALHRD == nil {
		s.VUI.NALHRD = CanonicalHRD()
	}
	if s.VUI.VCLHRD == nil {
		s.VUI.VCLHRD = CanonicalHRD()
	}
}

// Size returns the size of the decoded frame in pixels, after cropping.
func (s *SPS) Size() (width, height int) {
	mapUnits := 2
	if s.FrameMBsOnly {
		mapUnits = 1
	}
	width = int(s.PicWidthInMBsMinus1+1) * macroblockSize
	height = mapUnits * int(s.PicHeightInMapUnitsMinus1+1) * macroblockSize
	if c := s.Crop; c != nil {
		width -= defaultCropUnitX * int(c.Left+c.Right)
		height -= defaultCropUnitY * mapUnits * int(c.Top+c.Bottom)
	}
	return
}

// HRD returns the HRD parameters which determine the picture timing SEI
// syntax, or nil if there are none.
func (s *SPS) HRD() *HRD {
	if s.VUI == nil {
		return nil
	}
	if s.VUI.NALHRD != nil {
		return s.VUI.NALHRD
	}
	return s.VUI.VCLHRD
}

// RewriteSPS parses an SPS NAL unit, adds the canonical HRD parameters where
// they are missing, and returns the new NAL unit.
func RewriteSPS(nal []byte) ([]byte, *SPS, error) {
	s, err := ParseSPS(nal)
	if err != nil {
		return nil, nil, err
	}
	s.SetCanonicalHRD()
	return s.Encode(), s, nil
}
