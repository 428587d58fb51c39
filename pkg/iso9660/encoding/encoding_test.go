package encoding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBothByteOrders(t *testing.T) {
	buf := make([]byte, 8)
	PutBothByteOrders32(buf, 0x01020304)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01, 0x01, 0x02, 0x03, 0x04}, buf)

	val, ok := BothByteOrders32(buf)
	assert.Equal(t, uint32(0x01020304), val)
	assert.True(t, ok)

	clear(buf[4:])
	val, ok = BothByteOrders32(buf)
	assert.Equal(t, uint32(0x01020304), val)
	assert.False(t, ok)

	short := make([]byte, 4)
	PutBothByteOrders16(short, 0x1234)
	assert.Equal(t, []byte{0x34, 0x12, 0x12, 0x34}, short)
}

func TestPutString(t *testing.T) {
	buf := make([]byte, 8)
	PutString(buf, "MOVIE")
	assert.Equal(t, "MOVIE   ", string(buf))
	PutString(buf, "A_VERY_LONG_NAME")
	assert.Equal(t, "A_VERY_L", string(buf))
}

func TestDateTime(t *testing.T) {
	loc := time.FixedZone("", 2*3600)
	when := time.Date(2004, time.March, 7, 21, 15, 42, 250_000_000, loc)

	buf := make([]byte, DateTimeSize)
	require.NoError(t, PutDateTime(buf, when))
	assert.Equal(t, "2004030721154225", string(buf[:16]))
	assert.Equal(t, byte(8), buf[16])

	decoded, err := DateTime(buf)
	require.NoError(t, err)
	assert.True(t, when.Equal(decoded))

	t.Run("unspecified", func(t *testing.T) {
		require.NoError(t, PutDateTime(buf, time.Time{}))
		decoded, err := DateTime(buf)
		require.NoError(t, err)
		assert.True(t, decoded.IsZero())

		decoded, err = DateTime(make([]byte, DateTimeSize))
		require.NoError(t, err)
		assert.True(t, decoded.IsZero())
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := DateTime([]byte("20041307000000000"))
		assert.Error(t, err)
		_, err = DateTime([]byte("2004AB07000000000"))
		assert.Error(t, err)
		_, err = DateTime([]byte("2004"))
		assert.Error(t, err)
	})
}

func TestRecordingDateTime(t *testing.T) {
	loc := time.FixedZone("", -5*3600)
	when := time.Date(1999, time.December, 31, 23, 59, 58, 0, loc)

	buf := make([]byte, RecordingDateTimeSize)
	require.NoError(t, PutRecordingDateTime(buf, when))
	assert.Equal(t, []byte{99, 12, 31, 23, 59, 58, 0xEC}, buf)
	assert.True(t, when.Equal(RecordingDateTime(buf)))

	require.NoError(t, PutRecordingDateTime(buf, time.Time{}))
	assert.True(t, RecordingDateTime(buf).IsZero())

	assert.Error(t, PutRecordingDateTime(buf, time.Date(1850, 1, 1, 0, 0, 0, 0, time.UTC)))
}
