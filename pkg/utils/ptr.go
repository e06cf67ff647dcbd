package utils

import "time"

func StringPtr(s string) *string {
	return &s
}

func TimePtr(t time.Time) *time.Time {
	return &t
}

func DerefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
