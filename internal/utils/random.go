package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/tzconv"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

// 常见的时区，覆盖东西半球、南北半球以及非整点偏移
var CommonTimezones = []string{
	"Asia/Shanghai",
	"Asia/Tokyo",
	"Asia/Kolkata",
	"Europe/London",
	"Europe/Berlin",
	"America/New_York",
	"America/Los_Angeles",
	"America/Sao_Paulo",
	"Australia/Sydney",
	"UTC",
}

func GenerateRandomTimezone() string {
	return CommonTimezones[rand.Intn(len(CommonTimezones))]
}

func GenerateRandomOrganizer(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:          username,
		PasswordHash:      string(passwordHash),
		FullName:          fullName,
		Email:             username + "@" + emailDomainName,
		Role:              domain.RoleOrganizer,
		PreferredTimezone: GenerateRandomTimezone(),
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

func GenerateRandomSession(ownerID int64) *domain.Session {
	availabilityType := domain.AvailabilityWeekly
	if rand.Intn(2) == 0 {
		availabilityType = domain.AvailabilitySpecific
	}

	return &domain.Session{
		Name:             "排期" + GenerateRandomID(3, 3),
		Description:      "随机生成的排期",
		AvailabilityType: availabilityType,
		OwnerID:          ownerID,
	}
}

// 用 Fisher-Yates 洗牌算法生成随机的小时子集，结果有序
func GenerateRandomHours() []int {
	hours := make([]int, 24)
	for i := range hours {
		hours[i] = i
	}

	for i := len(hours) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		hours[i], hours[j] = hours[j], hours[i]
	}

	n := rand.Intn(8) + 1

	return NormalizeHours(hours[:n])
}

// GenerateRandomAvailability 在 from 之后两周内随机选择日期（具体日期模式）或星期（每周模式）
func GenerateRandomAvailability(availabilityType domain.AvailabilityType, from time.Time) map[string][]int {
	availability := make(map[string][]int)
	n := rand.Intn(4) + 1

	for i := 0; i < n; i++ {
		var key string
		switch availabilityType {
		case domain.AvailabilitySpecific:
			key = from.AddDate(0, 0, rand.Intn(14)).Format(tzconv.DateLayout)
		default:
			key = tzconv.Weekday(rand.Intn(7)).String()
		}
		availability[key] = GenerateRandomHours()
	}

	return availability
}

func GenerateRandomParticipant(session *domain.Session, from time.Time) *domain.Participant {
	name := GenerateRandomChineseName()
	return &domain.Participant{
		ID:               uuid.New(),
		SessionID:        session.ID,
		Name:             name,
		Role:             []string{"主持人", "成员", "嘉宾"}[rand.Intn(3)],
		Email:            fmt.Sprintf("%s@example.com", GenerateUsernameFromChineseName(name)),
		HomeTimezone:     GenerateRandomTimezone(),
		AvailabilityType: session.AvailabilityType,
		Availability:     GenerateRandomAvailability(session.AvailabilityType, from),
	}
}
