package rank

import (
	"encoding/binary"
	"hash/fnv"
)

// SeedHash 是 (seed, id) 的 FNV-1a 64 位哈希：同一 seed 下每个商品得到固定的伪随机值。
func SeedHash(seed int32, id string) uint64 {
	h := fnv.New64a()
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(seed))
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(id))
	return mix64(h.Sum64())
}

// SeedUniform 把 SeedHash 映射到 [0,1)。
func SeedUniform(seed int32, id string) float64 {
	return float64(SeedHash(seed, id)>>11) / (1 << 53)
}

// mix64 是 splitmix64 的收尾函数，打散 FNV 在尾部字节相近时的相关性。
func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
