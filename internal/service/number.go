package service

import (
	"fmt"
	"strconv"
	"strings"
)

const orderNumberPrefix = "ORD"

// nextOrderNumber выводит следующий номер заказа из последнего выданного.
// Номера дополняются нулями до трех знаков; после ORD999 формат растет
// естественным образом (ORD1000). Пустая строка означает отсутствие заказов.
func nextOrderNumber(last string) (string, error) {
	if last == "" {
		return fmt.Sprintf("%s%03d", orderNumberPrefix, 1), nil
	}
	suffix, err := strconv.Atoi(strings.TrimPrefix(last, orderNumberPrefix))
	if err != nil {
		return "", fmt.Errorf("malformed order number %q: %w", last, err)
	}
	return fmt.Sprintf("%s%03d", orderNumberPrefix, suffix+1), nil
}
