package gamification

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// couponAlphabet omits easily confused characters (I, O, 1, 0).
const couponAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCouponCode returns a coupon in XXXX-XXXX-XXXX format.
func GenerateCouponCode() (string, error) {
	segments := make([]string, 0, 3)
	for s := 0; s < 3; s++ {
		var segment strings.Builder
		for i := 0; i < 4; i++ {
			index, err := rand.Int(rand.Reader, big.NewInt(int64(len(couponAlphabet))))
			if err != nil {
				return "", err
			}
			segment.WriteByte(couponAlphabet[index.Int64()])
		}
		segments = append(segments, segment.String())
	}
	return strings.Join(segments, "-"), nil
}

// Level converts accumulated points into a level, starting at 1.
func Level(points int) int {
	if points < 0 {
		return 1
	}
	return points/100 + 1
}
