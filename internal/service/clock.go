package service

import "time"

// Clock 时间源抽象，便于测试中冻结时间
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// RealClock 系统时钟
func RealClock() Clock {
	return realClock{}
}
