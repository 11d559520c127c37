package firmware

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tinyrange/legacybios/internal/guest"
)

func dispatchEnv(t *testing.T, ramSize uint64) (*Services, *guest.RAM, *gateStub) {
	t.Helper()
	ram, err := guest.NewRAM(ramSize)
	if err != nil {
		t.Fatalf("NewRAM: %v", err)
	}
	t.Cleanup(func() { ram.Close() })

	gate := &gateStub{}
	m, err := DefaultMemoryMap(ramSize)
	if err != nil {
		t.Fatalf("DefaultMemoryMap: %v", err)
	}
	svc, err := NewServices(ram, gate, m, ramSize)
	if err != nil {
		t.Fatalf("NewServices: %v", err)
	}
	return svc, ram, gate
}

func TestDispatchUnsupportedFunction(t *testing.T) {
	svc, _, _ := dispatchEnv(t, 2<<20)

	regs := &Regs{EAX: 0x4100} // AH=0x41, not a system service
	svc.HandleInt15(regs)
	if !regs.CarryFlag || regs.AH() != RetEUnsupported {
		t.Fatalf("CF=%v AH=%#x, want carry with 0x86", regs.CarryFlag, regs.AH())
	}

	// Unknown sub-function of a known family.
	regs = &Regs{EAX: 0x2404}
	svc.HandleInt15(regs)
	if !regs.CarryFlag || regs.AH() != RetEUnsupported {
		t.Fatalf("A20 sub-fn: CF=%v AH=%#x, want carry with 0x86", regs.CarryFlag, regs.AH())
	}

	regs = &Regs{EAX: 0xE805}
	svc.HandleInt15(regs)
	if !regs.CarryFlag || regs.AH() != RetEUnsupported {
		t.Fatalf("E8 sub-fn: CF=%v AH=%#x, want carry with 0x86", regs.CarryFlag, regs.AH())
	}
}

func TestDispatchA20Family(t *testing.T) {
	svc, _, gate := dispatchEnv(t, 2<<20)

	enable := &Regs{EAX: 0x2401}
	svc.HandleInt15(enable)
	if enable.CarryFlag || enable.AH() != RetOK {
		t.Fatalf("enable failed: CF=%v AH=%#x", enable.CarryFlag, enable.AH())
	}
	if !gate.enabled {
		t.Fatal("gate not enabled")
	}

	query := &Regs{EAX: 0x2402}
	svc.HandleInt15(query)
	if query.AL() != 1 {
		t.Fatalf("query AL=%d, want 1", query.AL())
	}

	disable := &Regs{EAX: 0x2400}
	svc.HandleInt15(disable)
	if gate.enabled {
		t.Fatal("gate not disabled")
	}

	query = &Regs{EAX: 0x2402}
	svc.HandleInt15(query)
	if query.AL() != 0 {
		t.Fatalf("query AL=%d, want 0", query.AL())
	}

	support := &Regs{EAX: 0x2403}
	svc.HandleInt15(support)
	if support.BX() != a20SupportMask {
		t.Fatalf("support BX=%d, want %d", support.BX(), a20SupportMask)
	}
}

func TestDispatchExtendedSize(t *testing.T) {
	svc, _, _ := dispatchEnv(t, 2<<20)

	regs := &Regs{EAX: 0x8800}
	svc.HandleInt15(regs)
	if regs.CarryFlag {
		t.Fatal("fn 0x88 failed")
	}
	if regs.AX() != 1024 {
		t.Fatalf("AX=%d, want 1024", regs.AX())
	}
}

func TestDispatchSizeSplit(t *testing.T) {
	svc, _, _ := dispatchEnv(t, 20<<20)

	regs := &Regs{EAX: 0xE801}
	svc.HandleInt15(regs)
	if regs.CarryFlag {
		t.Fatal("fn 0xE801 failed")
	}
	if regs.CX() != 15*1024 || regs.DX() != 64 {
		t.Fatalf("CX=%d DX=%d, want 15360 64", regs.CX(), regs.DX())
	}
	if regs.AX() != regs.CX() || regs.BX() != regs.DX() {
		t.Fatalf("configured pair AX=%d BX=%d does not mirror CX=%d DX=%d",
			regs.AX(), regs.BX(), regs.CX(), regs.DX())
	}
}

func TestDispatchMapEnumerate(t *testing.T) {
	svc, ram, _ := dispatchEnv(t, 8<<20)
	const bufAddr = 0x7000

	count := svc.MemoryMap().Len()
	cursor := uint32(0)
	for i := 0; ; i++ {
		regs := &Regs{
			EAX: 0xE820,
			EBX: cursor,
			ECX: E820EntrySize,
			EDX: MapSignature,
			EDI: bufAddr & 0xF,
			ES:  bufAddr >> 4,
		}
		svc.HandleInt15(regs)
		if regs.CarryFlag {
			t.Fatalf("enumeration call %d failed", i)
		}
		if regs.EAX != MapSignature {
			t.Fatalf("call %d: EAX=%#x, want signature echo", i, regs.EAX)
		}
		if regs.ECX != E820EntrySize {
			t.Fatalf("call %d: ECX=%d, want %d", i, regs.ECX, E820EntrySize)
		}

		want := svc.MemoryMap().Entries()[i].Encode()
		got := make([]byte, E820EntrySize)
		if _, err := ram.ReadAt(got, bufAddr); err != nil {
			t.Fatalf("read buffer: %v", err)
		}
		if !bytes.Equal(got, want[:]) {
			t.Fatalf("call %d: buffer = %x, want %x", i, got, want)
		}

		if regs.EBX == 0 {
			if i != count-1 {
				t.Fatalf("enumeration ended after %d entries, want %d", i+1, count)
			}
			break
		}
		cursor = regs.EBX
	}
}

func TestDispatchMapEnumerateValidation(t *testing.T) {
	svc, ram, _ := dispatchEnv(t, 8<<20)
	const bufAddr = 0x7000

	sentinel := bytes.Repeat([]byte{0xEE}, E820EntrySize)
	if _, err := ram.WriteAt(sentinel, bufAddr); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	cases := []struct {
		name string
		regs Regs
	}{
		{"bad signature", Regs{EAX: 0xE820, ECX: E820EntrySize, EDX: 0x12345678, ES: bufAddr >> 4}},
		{"bad record size", Regs{EAX: 0xE820, ECX: E820EntrySize - 4, EDX: MapSignature, ES: bufAddr >> 4}},
		{"cursor past end", Regs{EAX: 0xE820, EBX: uint32(svc.MemoryMap().Len()), ECX: E820EntrySize, EDX: MapSignature, ES: bufAddr >> 4}},
	}
	for _, tc := range cases {
		regs := tc.regs
		svc.HandleInt15(&regs)
		if !regs.CarryFlag || regs.AH() != RetEUnsupported {
			t.Fatalf("%s: CF=%v AH=%#x, want carry with 0x86", tc.name, regs.CarryFlag, regs.AH())
		}
		got := make([]byte, E820EntrySize)
		if _, err := ram.ReadAt(got, bufAddr); err != nil {
			t.Fatalf("%s: read buffer: %v", tc.name, err)
		}
		if !bytes.Equal(got, sentinel) {
			t.Fatalf("%s: rejected call wrote to buffer", tc.name)
		}
	}
}

func TestDispatchBlockMove(t *testing.T) {
	svc, ram, _ := dispatchEnv(t, 4<<20)

	payload := []byte{9, 8, 7, 6}
	if _, err := ram.WriteAt(payload, int64(testSrcBase)); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	srcDesc := SegmentDescriptor{Base: testSrcBase, Limit: 0xFFFF, Access: descAccessData}
	dstDesc := SegmentDescriptor{Base: testDstBase, Limit: 0xFFFF, Access: descAccessData}
	if err := guest.WriteUint64(ram, testTableAddr+BlockMoveSourceOffset, srcDesc.Encode()); err != nil {
		t.Fatalf("write src descriptor: %v", err)
	}
	if err := guest.WriteUint64(ram, testTableAddr+BlockMoveDestOffset, dstDesc.Encode()); err != nil {
		t.Fatalf("write dst descriptor: %v", err)
	}

	regs := &Regs{EAX: 0x8700, ECX: 2, ES: testTableSeg, SS: 0x0700}
	svc.HandleInt15(regs)
	if regs.CarryFlag || regs.AH() != RetOK {
		t.Fatalf("block move: CF=%v AH=%#x", regs.CarryFlag, regs.AH())
	}

	got := make([]byte, 4)
	if _, err := ram.ReadAt(got, int64(testDstBase)); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("destination = %x, want %x", got, payload)
	}
}

func TestEnumerateMapSignature(t *testing.T) {
	svc, _, _ := dispatchEnv(t, 8<<20)

	if _, _, err := svc.EnumerateMap(MapSignature, 0, E820EntrySize); err != nil {
		t.Fatalf("EnumerateMap: %v", err)
	}
	_, _, err := svc.EnumerateMap(0x50414D53, 0, E820EntrySize)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("bad signature: err = %v", err)
	}
}
