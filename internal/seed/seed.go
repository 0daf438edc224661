package seed

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/tzconv"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/utils"
)

// File 是参与者导入文件的格式，例如：
//
//	participants:
//	  - name: 张伟
//	    role: 主持人
//	    home_timezone: Asia/Shanghai
//	    availability:
//	      Monday: [9, 10, 11]
type File struct {
	Participants []*domain.Participant `yaml:"participants"`
}

// ParseParticipants 解析并校验导入文件，文件中的顺序即规范顺序
func ParseParticipants(r io.Reader, availabilityType domain.AvailabilityType, zones tzconv.ZoneDatabase) ([]*domain.Participant, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("导入文件为空")
		}
		return nil, err
	}

	names := make(map[string]bool, len(f.Participants))
	for i, p := range f.Participants {
		if p == nil {
			return nil, fmt.Errorf("第 %d 个参与者为空", i+1)
		}
		if p.Name == "" {
			return nil, fmt.Errorf("第 %d 个参与者缺少姓名", i+1)
		}
		if names[p.Name] {
			return nil, fmt.Errorf("参与者 %s 重复", p.Name)
		}
		names[p.Name] = true

		if _, err := zones.Location(p.HomeTimezone); err != nil {
			return nil, fmt.Errorf("参与者 %s 的时区无效: %w", p.Name, err)
		}
		if err := utils.ValidateParticipantAvailability(p, availabilityType); err != nil {
			return nil, fmt.Errorf("参与者 %s: %w", p.Name, err)
		}

		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.Position = int32(i)
	}

	return f.Participants, nil
}

// ParticipantStore 是导入参与者时用到的存储操作
type ParticipantStore interface {
	GetSessionByID(id int64) (*domain.Session, error)
	ReplaceParticipants(sessionID int64, participants []*domain.Participant) error
}

// ImportParticipants 用文件中的参与者替换会话中原有的参与者，返回导入的人数
func ImportParticipants(store ParticipantStore, sessionID int64, path string) (int, error) {
	session, err := store.GetSessionByID(sessionID)
	if err != nil {
		return 0, fmt.Errorf("无法获取会话 %d: %w", sessionID, err)
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	participants, err := ParseParticipants(file, session.AvailabilityType, tzconv.DefaultZones())
	if err != nil {
		return 0, fmt.Errorf("解析导入文件失败: %w", err)
	}

	if err := store.ReplaceParticipants(sessionID, participants); err != nil {
		return 0, fmt.Errorf("保存参与者失败: %w", err)
	}

	slog.Info("导入参与者完成", "session", sessionID, "count", len(participants))
	return len(participants), nil
}
