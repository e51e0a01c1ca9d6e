package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/cupom-store/internal/constants"
)

var orderNoSuffixLimit = big.NewInt(1000000)

// generateOrderNo 生成 PD + yyyyMMddHHmmss + 6 位随机数
func generateOrderNo() (string, error) {
	n, err := rand.Int(rand.Reader, orderNoSuffixLimit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s%06d", constants.OrderNoPrefix, time.Now().UTC().Format("20060102150405"), n.Int64()), nil
}
