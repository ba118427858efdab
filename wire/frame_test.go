package wire

import "testing"

func TestEncodeDecode_Register(t *testing.T) {
	in := Event{Kind: KindRegister, ProgramName: "progA", FunctionName: "t1"}
	out, err := Decode(Encode(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Kind != KindRegister || out.ProgramName != "progA" || out.FunctionName != "t1" {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestEncodeDecode_Status(t *testing.T) {
	in := Event{Kind: KindStatus, ProgramName: "p", FunctionName: "b", Status: 0}
	out, err := Decode(Encode(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Kind != KindStatus || out.Status != 0 {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestEncodeDecode_Log(t *testing.T) {
	in := Event{Kind: KindLog, ProgramName: "p", FunctionName: "x", LogKind: 1, Msg: "ok"}
	out, err := Decode(Encode(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Msg != "ok" || out.LogKind != 1 {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestDecode_ShortFrame(t *testing.T) {
	_, err := Decode(make([]byte, FrameSize-1))
	if err != ErrShortFrame {
		t.Fatalf("got %v, want ErrShortFrame", err)
	}
}

func TestDecode_UnknownKind(t *testing.T) {
	buf := Encode(Event{Kind: KindRegister, ProgramName: "p", FunctionName: "f"})
	buf[offInfoType] = 0xFF
	_, err := Decode(buf)
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestTrimNul(t *testing.T) {
	cases := []struct {
		in   []byte
		want string
	}{
		{[]byte("hello\x00\x00\x00"), "hello"},
		{[]byte{0, 0, 0}, ""},
		{[]byte("full"), "full"},
	}
	for _, c := range cases {
		if got := trimNul(c.in); got != c.want {
			t.Errorf("trimNul(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFrameSize(t *testing.T) {
	if FrameSize != 168 {
		t.Fatalf("FrameSize = %d, want 168", FrameSize)
	}
}
