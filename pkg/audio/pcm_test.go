package audio

import "testing"

func TestResample_SameRate(t *testing.T) {
	samples := []int16{100, 200, 300, 400, 500}
	result := Resample(samples, 24000, 24000)

	if len(result) != len(samples) {
		t.Errorf("Expected %d samples, got %d", len(samples), len(result))
	}
}

func TestResample_Ratios(t *testing.T) {
	tests := []struct {
		name     string
		in       int
		from, to int
		want     int
	}{
		{"48k to 16k", 960, 48000, 16000, 320},
		{"16k to 24k", 320, 16000, 24000, 480},
		{"24k to 48k", 480, 24000, 48000, 960},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := make([]int16, tt.in)
			if got := len(Resample(samples, tt.from, tt.to)); got != tt.want {
				t.Errorf("got %d samples, want %d", got, tt.want)
			}
		})
	}
}

func TestResample_Empty(t *testing.T) {
	if len(Resample(nil, 24000, 48000)) != 0 {
		t.Errorf("Expected empty result for nil input")
	}
}

func TestBytesToSamples(t *testing.T) {
	samples := BytesToSamples([]byte{0x02, 0x01, 0x04, 0x03})
	if len(samples) != 2 || samples[0] != 0x0102 || samples[1] != 0x0304 {
		t.Errorf("unexpected samples %#v", samples)
	}
	back := SamplesToBytes(samples)
	if back[0] != 0x02 || back[3] != 0x03 {
		t.Errorf("unexpected bytes %#v", back)
	}
}

func TestInt16Float32(t *testing.T) {
	f := Int16ToFloat32([]int16{-32768, 0, 16384})
	if f[0] != -1 || f[1] != 0 || f[2] != 0.5 {
		t.Errorf("unexpected floats %v", f)
	}
	i := Float32ToInt16(f)
	if i[0] != -32768 || i[2] != 16384 {
		t.Errorf("unexpected ints %v", i)
	}
}
