package feed

import (
	"sync/atomic"
	"time"
)

var seedSeq atomic.Uint64

// NewSeed 生成正的 int32 种子：墙钟纳秒与进程内序号混合，结果不为 0。
// 同一纳秒内的两次调用依靠序号区分。
func NewSeed() int32 {
	x := uint64(time.Now().UnixNano()) + seedSeq.Add(1)*0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	s := int32(x & 0x7fffffff)
	if s == 0 {
		return 1
	}
	return s
}
