package customer

import "fmt"

// CPF はブラジルの個人納税者番号を表す（数字11桁、正規化済み）
type CPF string

// ParseCPF は入力文字列を検証してCPFを作成する
// 区切り文字（. と -）は取り除き、検査数字2桁を照合する
func ParseCPF(input string) (CPF, error) {
	digits := make([]int, 0, 11)
	for _, r := range input {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		case r == '.' || r == '-':
			// 書式付き入力を許容
		default:
			return "", ErrInvalidCPF
		}
	}
	if len(digits) != 11 {
		return "", ErrInvalidCPF
	}

	// 全桁同一の並びは検査数字が合っていても無効
	allSame := true
	for _, d := range digits[1:] {
		if d != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return "", ErrInvalidCPF
	}

	if checkDigit(digits[:9], 10) != digits[9] {
		return "", ErrInvalidCPF
	}
	if checkDigit(digits[:10], 11) != digits[10] {
		return "", ErrInvalidCPF
	}

	raw := make([]byte, 11)
	for i, d := range digits {
		raw[i] = byte('0' + d)
	}
	return CPF(raw), nil
}

// checkDigit はモジュロ11方式の検査数字を計算する
func checkDigit(digits []int, initialWeight int) int {
	sum := 0
	for i, d := range digits {
		sum += d * (initialWeight - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}

// String は数字11桁の表現を返す
func (c CPF) String() string { return string(c) }

// Formatted は 000.000.000-00 形式の表現を返す
func (c CPF) Formatted() string {
	s := string(c)
	return fmt.Sprintf("%s.%s.%s-%s", s[0:3], s[3:6], s[6:9], s[9:11])
}
