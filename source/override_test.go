package source

import (
	"testing"
	"time"

	"github.com/nvkalinin/month-grid/store"
	"github.com/stretchr/testify/assert"
)

func TestOverride_GetYear(t *testing.T) {
	ov := &Override{
		Path: "testdata/override.yml",
	}

	months, err := ov.GetYear(2022)
	expMonths := store.Months{
		time.November: store.Days{
			4: {Type: store.Normal},
			7: {Type: store.Holiday, Desc: "День Великой Октябрьской социалистической революции"},
		},
	}
	assert.NoError(t, err)
	assert.Equal(t, expMonths, months)

	months, err = ov.GetYear(2021)
	assert.NoError(t, err)
	assert.Equal(t, store.Day{Working: true, Type: store.Normal, Desc: "работаем"}, months[time.January][2])

	months, err = ov.GetYear(2023)
	assert.NoError(t, err)
	assert.Len(t, months, 0)
}

func TestOverride_missingFile(t *testing.T) {
	ov := &Override{Path: "testdata/nope.yml"}

	_, err := ov.GetYear(2022)
	assert.ErrorContains(t, err, "source/override cannot read")
}
