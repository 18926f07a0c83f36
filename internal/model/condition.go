package model

import "strings"

// Condition ranks. Anything unrecognised ranks lowest.
const (
	RankNew       = 5
	RankExcellent = 4
	RankGood      = 3
	RankFair      = 2
	RankOther     = 1
)

var conditionRanks = map[string]int{
	"new":              RankNew,
	"mint":             RankNew,
	"brand new":        RankNew,
	"new with tags":    RankNew,
	"new without tags": RankNew,
	"nwt":              RankNew,
	"excellent":        RankExcellent,
	"like-new":         RankExcellent,
	"like new":         RankExcellent,
	"like_new":         RankExcellent,
	"good":             RankGood,
	"fair":             RankFair,
	"acceptable":       RankFair,
}

// ConditionRank maps a free-text condition onto the 1..5 rank scale.
func ConditionRank(condition string) int {
	if rank, ok := conditionRanks[strings.ToLower(strings.TrimSpace(condition))]; ok {
		return rank
	}
	return RankOther
}
