package configuration

import "time"

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (s Scheduler) TickTimeout() time.Duration { return seconds(s.TickTimeoutSeconds) }
func (s Scheduler) RequestTimeout() time.Duration { return seconds(s.RequestTimeoutSeconds) }
func (s Scheduler) LockTTL() time.Duration { return seconds(s.LockTTLSeconds) }
func (s Scheduler) RefreshSkew() time.Duration { return time.Duration(s.RefreshSkewMinutes) * time.Minute }
func (s Scheduler) RefreshLookahead() time.Duration { return time.Duration(s.RefreshLookaheadMinutes) * time.Minute }
