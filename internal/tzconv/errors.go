package tzconv

import "fmt"

// ZoneResolutionError 表示无法解析的 IANA 时区标识
type ZoneResolutionError struct {
	Zone string
	Err  error
}

func (e *ZoneResolutionError) Error() string {
	return fmt.Sprintf("无法解析时区 %q: %v", e.Zone, e.Err)
}

func (e *ZoneResolutionError) Unwrap() error {
	return e.Err
}

// ConversionFailure 表示构造或换算时间时失败
type ConversionFailure struct {
	Key  string
	Hour int
	Err  error
}

func (e *ConversionFailure) Error() string {
	return fmt.Sprintf("无法换算时间段 %s %02d:00: %v", e.Key, e.Hour, e.Err)
}

func (e *ConversionFailure) Unwrap() error {
	return e.Err
}

// InputValidationWarning 表示单条空闲时间不合法（星期名称无法识别、日期格式错误或小时越界），
// 该条目会被跳过。
type InputValidationWarning struct {
	Key    string
	Hour   int
	Reason string
}

func (e *InputValidationWarning) Error() string {
	return fmt.Sprintf("忽略不合法的时间段 %s %d: %s", e.Key, e.Hour, e.Reason)
}
