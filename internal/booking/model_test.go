package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNullableString(t *testing.T) {
	assert.Nil(t, nullableString(""))
	if s := nullableString("hello"); assert.NotNil(t, s) {
		assert.Equal(t, "hello", *s)
	}
}

func TestSlotList_Offers(t *testing.T) {
	list := SlotList{Date: testMonday, Slots: []string{"09:00", "13:30"}}

	assert.True(t, list.Offers(testMonday, "09:00"))
	assert.True(t, list.Offers(testMonday, "13:30:00"))
	assert.True(t, list.Offers(" "+testMonday, "9:00"))
	assert.False(t, list.Offers(testMonday, "10:00"))
	assert.False(t, list.Offers("2026-03-03", "09:00"))
	assert.False(t, list.Offers(testMonday, "garbage"))
	assert.True(t, list.Available())
	assert.False(t, SlotList{}.Available())
}

func TestRequest_Normalize(t *testing.T) {
	req := Request{
		Details: Details{Name: "  Jane Doe ", Email: " jane@x.com", Message: " hi\n"},
		Date:    " 2026-03-02",
		Time:    "09:00 ",
	}
	req.Normalize()

	assert.Equal(t, "Jane Doe", req.Name)
	assert.Equal(t, "jane@x.com", req.Email)
	assert.Equal(t, "hi", req.Message)
	assert.Equal(t, "2026-03-02", req.Date)
	assert.Equal(t, "09:00", req.Time)
	assert.NoError(t, req.Validate())
}
