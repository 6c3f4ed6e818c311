package diagnostics

import (
	"github.com/lk2023060901/cardforge/app/cardforge/internal/catalog"
)

// 问题级别
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// experienceOutlierFactor 经验超过非零均值的该倍数视为异常
const experienceOutlierFactor = 5

// Issue 自检发现的问题
type Issue struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// RunChecklist 检查卡包、卡牌和货币配置中常见的平衡问题
func RunChecklist(cat *catalog.Catalog, currencies *catalog.CurrencyRegistry) []Issue {
	var issues []Issue

	packs := cat.Packs()
	if len(packs) == 0 {
		issues = append(issues, Issue{SeverityError, "No packs are registered."})
	}
	for _, p := range packs {
		if len(p.Cards) == 0 {
			issues = append(issues, Issue{SeverityError, "Pack " + p.ID + " contains no cards."})
		}
	}

	cards := cat.Cards()
	if len(cards) == 0 {
		issues = append(issues, Issue{SeverityError, "No cards are registered."})
	} else {
		var values []int64
		var sum int64
		for _, c := range cards {
			if exp := c.Reward.Experience; exp != 0 {
				values = append(values, exp)
				sum += exp
			}
		}
		if len(values) > 0 {
			mean := float64(sum) / float64(len(values))
			for _, v := range values {
				if float64(v) > mean*experienceOutlierFactor {
					issues = append(issues, Issue{SeverityWarning,
						"Some cards grant far more experience than the average."})
					break
				}
			}
		}
	}

	if len(currencies.All()) == 0 {
		issues = append(issues, Issue{SeverityWarning, "No currencies are defined."})
	}
	return issues
}

// HasErrors 是否存在 error 级别的问题
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
