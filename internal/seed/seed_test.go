package seed

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/tzconv"
)

const weeklyFile = `
participants:
  - id: 6f1c2b1e-2f4e-4b8a-9d0e-1a2b3c4d5e6f
    name: 张伟
    role: 主持人
    email: zhangwei@example.com
    home_timezone: Asia/Shanghai
    availability:
      Monday: [11, 9, 9]
  - name: Alice
    home_timezone: America/New_York
    availability_type: weekly
    availability:
      Sunday: [20]
`

func TestParseParticipants(t *testing.T) {
	participants, err := ParseParticipants(strings.NewReader(weeklyFile), domain.AvailabilityWeekly, tzconv.NewZones())
	require.NoError(t, err)
	require.Len(t, participants, 2)

	first := participants[0]
	assert.Equal(t, uuid.MustParse("6f1c2b1e-2f4e-4b8a-9d0e-1a2b3c4d5e6f"), first.ID)
	assert.Equal(t, "张伟", first.Name)
	assert.Equal(t, []int{9, 11}, first.Availability["Monday"])
	assert.Equal(t, domain.AvailabilityWeekly, first.AvailabilityType)
	assert.Equal(t, int32(0), first.Position)

	second := participants[1]
	assert.NotEqual(t, uuid.Nil, second.ID)
	assert.Equal(t, int32(1), second.Position)
}

func TestParseParticipantsRejects(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"empty", ""},
		{"bad zone", "participants:\n  - name: a\n    home_timezone: Mars/Olympus\n    availability:\n      Monday: [1]\n"},
		{"local zone", "participants:\n  - name: a\n    home_timezone: Local\n    availability:\n      Monday: [1]\n"},
		{"missing name", "participants:\n  - home_timezone: UTC\n    availability:\n      Monday: [1]\n"},
		{"duplicate", "participants:\n  - name: a\n    home_timezone: UTC\n    availability:\n      Monday: [1]\n  - name: a\n    home_timezone: UTC\n    availability:\n      Monday: [2]\n"},
		{"date in weekly session", "participants:\n  - name: a\n    home_timezone: UTC\n    availability:\n      \"2024-07-04\": [1]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParticipants(strings.NewReader(tt.file), domain.AvailabilityWeekly, tzconv.NewZones())
			assert.Error(t, err)
		})
	}
}

type fakeStore struct {
	session  *domain.Session
	saveErr  error
	saved    []*domain.Participant
	replaced bool
}

func (s *fakeStore) GetSessionByID(id int64) (*domain.Session, error) {
	if s.session == nil || s.session.ID != id {
		return nil, errors.New("会话不存在")
	}
	return s.session, nil
}

func (s *fakeStore) ReplaceParticipants(sessionID int64, participants []*domain.Participant) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.replaced = true
	s.saved = participants
	return nil
}

func writeImportFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "participants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImportParticipants(t *testing.T) {
	path := writeImportFile(t, weeklyFile)
	session := &domain.Session{ID: 3, AvailabilityType: domain.AvailabilityWeekly}

	store := &fakeStore{session: session}
	n, err := ImportParticipants(store, 3, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, store.replaced)
	assert.Len(t, store.saved, 2)

	// 保存失败时必须把错误交给调用方，而不是报告导入成功
	store = &fakeStore{session: session, saveErr: errors.New("连接已断开")}
	n, err = ImportParticipants(store, 3, path)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.False(t, store.replaced)

	_, err = ImportParticipants(&fakeStore{session: session}, 4, path)
	assert.Error(t, err)

	_, err = ImportParticipants(&fakeStore{session: session}, 3, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
