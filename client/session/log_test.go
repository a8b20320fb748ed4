package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/olafr/tafl-client/pkg/tafl"
	"github.com/stretchr/testify/assert"
)

func TestAppendLogFormatsAndCaps(t *testing.T) {
	restore := timeNow
	timeNow = func() time.Time {
		return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	}
	defer func() { timeNow = restore }()

	controller, _, _, _ := newTestController(&fakeChannel{})

	controller.lock.Lock()
	for i := 0; i < maxLogEntries+3; i++ {
		controller.appendLog(fmt.Sprintf("entry %d", i))
	}
	controller.lock.Unlock()

	entries := controller.LogEntries()
	assert.Len(t, entries, maxLogEntries)
	assert.Equal(t, fmt.Sprintf("09:30:00  entry %d", maxLogEntries+2), entries[0])
}

func TestFormatMove(t *testing.T) {
	quiet := formatMove(tafl.SideAttackers, tafl.Square{Row: 10, Col: 0}, tafl.Square{Row: 6, Col: 0}, 0)
	assert.Equal(t, "Attackers a1 to a5", quiet)

	taking := formatMove(tafl.SideDefenders, tafl.Square{Row: 5, Col: 5}, tafl.Square{Row: 5, Col: 8}, 2)
	assert.Equal(t, "Defenders f6 to i6, capturing 2", taking)
}
