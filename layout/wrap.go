package layout

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// WrapCaption 将标签文字折成至多两行，两行字符数尽量接近。
// 仅当文字中含有空格且至少两个单词时才折行；否则原样返回一行。
// 首词超过目标长度时也放在第一行，不产生空的第一行。
func WrapCaption(caption string) []string {
	if !strings.ContainsFunc(caption, unicode.IsSpace) {
		return []string{caption}
	}
	words := strings.Fields(caption)
	if len(words) <= 1 {
		return []string{caption}
	}

	total := len(words) - 1
	for _, w := range words {
		total += utf8.RuneCountInString(w)
	}
	target := float64(total) / 2

	// 首个单词总在第一行；最后一个单词总在第二行。
	split := 1
	chars := utf8.RuneCountInString(words[0]) + 1
	for i := 1; i < len(words)-1; i++ {
		n := utf8.RuneCountInString(words[i])
		if float64(chars+n) > target {
			break
		}
		chars += n + 1
		split = i + 1
	}
	return []string{
		strings.Join(words[:split], " "),
		strings.Join(words[split:], " "),
	}
}

// NonSpaceLen 返回非空白字符数，用于按长度分档选择字号。
func NonSpaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
