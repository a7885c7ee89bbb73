package ndfilter

import (
	"errors"
	"math"
	"slices"
	"testing"
)

func TestArrayIndexing(t *testing.T) {
	a := NewArray(Float32, 2, 3, 4)
	if a.Size() != 24 || a.NDim() != 3 {
		t.Fatalf("Size() = %d, NDim() = %d", a.Size(), a.NDim())
	}
	if got := a.Strides(); !slices.Equal(got, []int{12, 4, 1}) {
		t.Errorf("Strides() = %v", got)
	}
	a.Set(5, 1, 2, 3)
	if a.Data[23] != 5 || a.At(1, 2, 3) != 5 {
		t.Errorf("Set/At mismatch: %v", a.Data[23])
	}
}

func TestArrayValidate(t *testing.T) {
	tests := []struct {
		name string
		a    *Array
	}{
		{"nil", nil},
		{"no axes", &Array{}},
		{"zero extent", &Array{Shape: []int{2, 0}}},
		{"short data", &Array{Shape: []int{2, 2}, Data: make([]float64, 3)}},
	}
	for _, tt := range tests {
		if err := tt.a.Validate(); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: Validate() = %v, want ErrInvalidInput", tt.name, err)
		}
	}
	if _, err := ArrayFromSlice(Float64, make([]float64, 5), 2, 3); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("ArrayFromSlice() = %v, want ErrShapeMismatch", err)
	}
}

func TestArrayBoolOps(t *testing.T) {
	a, err := ArrayFromSlice(Float32, []float64{0, 2, -1, 0}, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	b := a.AsBool()
	if b.DType != Bool || !slices.Equal(b.Data, []float64{0, 1, 1, 0}) {
		t.Errorf("AsBool() = %v", b.Data)
	}
	if b.AsBool() != b {
		t.Error("AsBool() of a Bool array should return it unchanged")
	}
	if n := b.Not(); !slices.Equal(n.Data, []float64{1, 0, 0, 1}) {
		t.Errorf("Not() = %v", n.Data)
	}
}

func TestArrayAsTypeAndClone(t *testing.T) {
	a, _ := ArrayFromSlice(Float64, []float64{-3.5, 2.5, 300, 7.2}, 4)
	u := a.AsType(Uint8)
	if !slices.Equal(u.Data, []float64{0, 3, 255, 7}) {
		t.Errorf("AsType(Uint8) = %v", u.Data)
	}
	c := a.Clone()
	c.Data[0] = 9
	if a.Data[0] != -3.5 {
		t.Error("Clone() shares data")
	}
}

func TestArrayCrop(t *testing.T) {
	a := NewArray(Float64, 3, 4)
	for i := range a.Data {
		a.Data[i] = float64(i)
	}
	c, err := a.Crop([]int{2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(c.Data, []float64{0, 1, 2, 4, 5, 6}) {
		t.Errorf("Crop() = %v", c.Data)
	}
	if same, _ := a.Crop([]int{3, 4}); same != a {
		t.Error("Crop() to the full shape should return the array itself")
	}
	if _, err := a.Crop([]int{4, 1}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("oversized crop: %v", err)
	}
	if _, err := a.Crop([]int{1}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("wrong rank: %v", err)
	}
}

func TestArraySlice(t *testing.T) {
	a := NewArray(Float64, 3, 4)
	for i := range a.Data {
		a.Data[i] = float64(i)
	}
	c, err := a.Slice([]int{1, 2}, []int{2, 2})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(c.Shape, []int{2, 2}) || !slices.Equal(c.Data, []float64{6, 7, 10, 11}) {
		t.Errorf("Slice() = %v %v", c.Shape, c.Data)
	}
	if _, err := a.Slice([]int{2, 0}, []int{2, 4}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("slice past the end: %v", err)
	}
	if _, err := a.Slice([]int{-1, 0}, []int{1, 1}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("negative start: %v", err)
	}
}

func TestPixelTypeQuantize(t *testing.T) {
	tests := []struct {
		pt   PixelType
		in   float64
		want float64
	}{
		{Uint8, 2.5, 3},
		{Uint8, -0.4, 0},
		{Uint8, 1e6, 255},
		{Int16, -2.5, -3},
		{Int16, -40000, -32768},
		{Uint16, 65535.4, 65535},
		{Bool, -0.1, 1},
		{Bool, 0, 0},
		{Float64, 0.1, 0.1},
		{Float32, 0.1, float64(float32(0.1))},
		{Uint8, math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := tt.pt.Quantize(tt.in); got != tt.want {
			t.Errorf("%v.Quantize(%v) = %v, want %v", tt.pt, tt.in, got, tt.want)
		}
	}
	if !math.IsInf(Float32.Quantize(math.Inf(-1)), -1) {
		t.Error("Float32 should keep -Inf")
	}
}

func TestParsePixelType(t *testing.T) {
	for pt := Float32; pt <= Bool; pt++ {
		got, err := ParsePixelType(pt.String())
		if err != nil || got != pt {
			t.Errorf("ParsePixelType(%q) = %v, %v", pt, got, err)
		}
	}
	if _, err := ParsePixelType("complex64"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown type: %v", err)
	}
	if !Uint8.IsInteger() || Bool.IsInteger() || !Float32.IsFloat() {
		t.Error("IsInteger/IsFloat classification")
	}
}

func TestAxisHelpers(t *testing.T) {
	if got := Reverse([]int{1, 2, 3}); !slices.Equal(got, []int{3, 2, 1}) {
		t.Errorf("Reverse() = %v", got)
	}
	if Reverse[float64](nil) != nil {
		t.Error("Reverse(nil) should stay nil")
	}
	s := []float64{0.5, 2}
	if got := Reverse(Reverse(s)); !slices.Equal(got, s) {
		t.Errorf("double Reverse() = %v", got)
	}
	if got := Fill(3, 1.0); !slices.Equal(got, []float64{1, 1, 1}) {
		t.Errorf("Fill() = %v", got)
	}
	if !IsUnitSpacing(nil) || !IsUnitSpacing([]float64{1, 1}) || IsUnitSpacing([]float64{1, 2}) {
		t.Error("IsUnitSpacing classification")
	}
}

func TestFootprints(t *testing.T) {
	fp := ConnectivityFootprint(3)
	if fp.Count() != 27 || fp.Validate(3) != nil {
		t.Errorf("ConnectivityFootprint(3): count %d, validate %v", fp.Count(), fp.Validate(3))
	}
	if err := fp.Validate(2); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("rank mismatch: %v", err)
	}

	box := BoxFootprint([]int{0, 2})
	if !slices.Equal(box.Shape, []int{1, 5}) {
		t.Errorf("BoxFootprint() shape = %v", box.Shape)
	}
	offs := box.Offsets()
	if len(offs) != 5 || !slices.Equal(offs[0], []int{0, -2}) || !slices.Equal(offs[4], []int{0, 2}) {
		t.Errorf("Offsets() = %v", offs)
	}

	empty := &Footprint{Shape: []int{3}, Mask: make([]bool, 3)}
	if err := empty.Validate(1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty footprint: %v", err)
	}
	var nilFP *Footprint
	if err := nilFP.Validate(1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("nil footprint: %v", err)
	}
}
