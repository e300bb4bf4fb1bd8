package cmn

import (
	"strconv"
	"strings"
)

/*
ansi escape sequences, packed into one value:
[0 | back | fore | attr]

fmt.Fprintf(w, "%vwarning%v\n", cmn.ForeYellow|cmn.AttrBold, cmn.AttrOff)
*/
type AnsiFlag uint32

const (
	AttrOff AnsiFlag = iota
	AttrBold
	_
	_
	AttrUnderscore
	AttrBlink
	_
	AttrReverseVideo
	AttrConcealed
)

const (
	ForeBlack AnsiFlag = (iota + 30) << 8
	ForeRed
	ForeGreen
	ForeYellow
	ForeBlue
	ForeMagenta
	ForeCyan
	ForeWhite
)

const (
	BackBlack AnsiFlag = (iota + 40) << 16
	BackRed
	BackGreen
	BackYellow
	BackBlue
	BackMagenta
	BackCyan
	BackWhite
)

func (f AnsiFlag) String() string {
	var codes []string
	for i := 0; i < 4; i++ {
		if b := (f >> (8 * uint(i))) & 0xFF; b != 0 {
			codes = append(codes, strconv.Itoa(int(b)))
		}
	}
	if len(codes) == 0 {
		codes = []string{"0"}
	}
	return "\033[" + strings.Join(codes, ";") + "m"
}
