package tzconv

import (
	"errors"
	"sync"
	"time"
)

// ZoneDatabase 根据 IANA 标识提供时区规则
type ZoneDatabase interface {
	Location(name string) (*time.Location, error)
}

// Zones 是基于 Go 内置 tzdata 的 ZoneDatabase，已加载的时区会被缓存
type Zones struct {
	mu    sync.RWMutex
	cache map[string]*time.Location
}

func NewZones() *Zones {
	return &Zones{
		cache: make(map[string]*time.Location),
	}
}

var defaultZones = NewZones()

// DefaultZones 返回进程内共享的时区数据库
func DefaultZones() *Zones {
	return defaultZones
}

func (z *Zones) Location(name string) (*time.Location, error) {
	// "" 和 "Local" 会被 time.LoadLocation 解析成 UTC 和本机时区，这里不接受
	if name == "" || name == "Local" {
		return nil, &ZoneResolutionError{Zone: name, Err: errors.New("不是 IANA 时区标识")}
	}

	z.mu.RLock()
	loc, ok := z.cache[name]
	z.mu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &ZoneResolutionError{Zone: name, Err: err}
	}

	z.mu.Lock()
	z.cache[name] = loc
	z.mu.Unlock()

	return loc, nil
}

// Offset 返回 instant 时刻 zone 的 UTC 偏移（秒）以及是否处于夏令时
func (z *Zones) Offset(instant time.Time, zone string) (int, bool, error) {
	loc, err := z.Location(zone)
	if err != nil {
		return 0, false, err
	}
	local := instant.In(loc)
	_, offset := local.Zone()
	return offset, local.IsDST(), nil
}

// IsDaylightSavingTime 直接使用时区数据库中的夏令时标记，
// 不再与当年 1 月 1 日的偏移比较，因此南半球时区也能得到正确结果。
func IsDaylightSavingTime(zones ZoneDatabase, instant time.Time, zone string) (bool, error) {
	loc, err := zones.Location(zone)
	if err != nil {
		return false, err
	}
	return instant.In(loc).IsDST(), nil
}
