package model

import "unicode/utf16"

// predefinedColors is the fixed palette events are colored from. Values are
// ARGB numbers as the clients store them.
var predefinedColors = []int64{
	4282339708, 4294922960, 4280391411, 4283215998, 4294954402,
	4289864256, 4294925721, 4280422911, 4286540287, 4294944162,
	4294935099, 4283334349, 4278239206, 4294949555, 4294953670,
	4294960335, 4294968294, 4287694335, 4284989949, 4281620479,
}

// ColorForTitle derives a stable color from an event title so the same title
// always renders the same color. The hash runs over UTF-16 code units with
// 32-bit wraparound to stay compatible with colors already assigned by
// existing clients.
func ColorForTitle(title string) int64 {
	if len(title) == 0 {
		return predefinedColors[0]
	}
	var hash int32
	for _, u := range utf16.Encode([]rune(title)) {
		hash = int32(u) + (hash << 5) - hash
	}
	idx := hash % int32(len(predefinedColors))
	if idx < 0 {
		idx = -idx
	}
	return predefinedColors[idx]
}
