package flash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{SectorSize: 256, SectorCount: 2}
}

func TestNew_StartsErased(t *testing.T) {
	a, err := New(testConfig())
	require.NoError(t, err)

	for s := 0; s < a.SectorCount(); s++ {
		sec, err := a.Sector(s)
		require.NoError(t, err)
		for i, b := range sec {
			if b != ErasedByte {
				t.Fatalf("sector %d byte %d = %#x, want 0xFF", s, i, b)
			}
		}
	}
}

func TestNew_RejectsBadGeometry(t *testing.T) {
	_, err := New(Config{SectorSize: 0, SectorCount: 2})
	assert.ErrorIs(t, err, ErrBadGeometry)

	_, err = New(Config{SectorSize: 10, SectorCount: 2}) // not a multiple of 4
	assert.ErrorIs(t, err, ErrBadGeometry)

	_, err = New(Config{SectorSize: 256, SectorCount: 1})
	assert.ErrorIs(t, err, ErrBadGeometry)
}

func TestProgram_ClearsBitsOnly(t *testing.T) {
	a, err := New(testConfig())
	require.NoError(t, err)

	// Erased 0xFF can take any value.
	require.NoError(t, a.Program(0, 0, []byte{0xF0}))

	// Clearing more bits is fine, including writing the same value again.
	require.NoError(t, a.Program(0, 0, []byte{0xF0}))
	require.NoError(t, a.Program(0, 0, []byte{0x80}))

	// Setting a cleared bit must fail and must not mutate.
	err = a.Program(0, 0, []byte{0x81})
	assert.ErrorIs(t, err, ErrProgramConflict)

	got, err := a.Read(0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80}, got)
}

func TestProgram_ConflictLeavesWholeWriteUnapplied(t *testing.T) {
	a, err := New(testConfig())
	require.NoError(t, err)

	require.NoError(t, a.Program(0, 0, []byte{0x00, 0x00}))

	// First byte is legal (stays 0x00), second is not.
	err = a.Program(0, 0, []byte{0x00, 0x01})
	assert.ErrorIs(t, err, ErrProgramConflict)

	got, err := a.Read(0, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00}, got)
}

func TestProgram_Bounds(t *testing.T) {
	a, err := New(testConfig())
	require.NoError(t, err)

	assert.ErrorIs(t, a.Program(2, 0, []byte{0}), ErrOutOfRange)
	assert.ErrorIs(t, a.Program(-1, 0, []byte{0}), ErrOutOfRange)
	assert.ErrorIs(t, a.Program(0, 255, []byte{0, 0}), ErrOutOfRange)
	assert.NoError(t, a.Program(0, 255, []byte{0}))
}

func TestErase_ResetsAndCounts(t *testing.T) {
	a, err := New(testConfig())
	require.NoError(t, err)

	require.NoError(t, a.Program(1, 8, []byte{0x12, 0x34}))
	require.NoError(t, a.Erase(1))

	got, err := a.Read(1, 8, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFF}, got)

	n, err := a.EraseCount(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	n, err = a.EraseCount(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)

	// A previously conflicting write is legal again after erase.
	require.NoError(t, a.Program(1, 8, []byte{0xFF, 0xFF}))
}

func TestImage_RoundTrip(t *testing.T) {
	a, err := New(testConfig())
	require.NoError(t, err)
	require.NoError(t, a.Program(0, 0, []byte("NRCW")))
	require.NoError(t, a.Program(1, 100, []byte{0xAB}))

	img := a.Image()
	assert.Len(t, img, 512)

	b, err := New(testConfig())
	require.NoError(t, err)
	require.NoError(t, b.LoadImage(img))
	assert.Equal(t, img, b.Image())

	assert.ErrorIs(t, b.LoadImage(img[:100]), ErrImageSize)
}
