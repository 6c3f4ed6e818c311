package catalog

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
)

// DropRules 全局掉落配置中参与校验的部分
type DropRules struct {
	BaseCooldownSeconds int64
	MaxCardsPerDrop     int
	RarityWeights       map[string]float64
}

// ValidateApp 校验已注册到应用中的目录与掉落配置；
// 相对路径的本地图片按 baseDir 解析，baseDir 为空时使用当前工作目录
func ValidateApp(cat *Catalog, currencies *CurrencyRegistry, rules DropRules, baseDir string) []string {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	all := currencies.All()
	if len(all) == 0 {
		add("No currencies registered in application.")
	}
	if !currencies.Has("coins") {
		add("Currency 'coins' must be registered in application.")
	}

	if baseDir == "" {
		baseDir, _ = os.Getwd()
	}

	cardIDs := make(map[string]struct{})
	for _, card := range cat.Cards() {
		cardIDs[card.ID] = struct{}{}
		if card.Reward.Experience < 0 {
			add("Card '%s' has invalid experience reward '%d'.", card.ID, card.Reward.Experience)
		}
		for _, code := range card.Reward.CurrencyCodes() {
			amount := card.Reward.Currencies[code]
			if !currencies.Has(code) {
				add("Card '%s' references unknown currency '%s'.", card.ID, code)
			}
			if amount < 0 {
				add("Card '%s' has invalid amount '%d' for currency '%s'.", card.ID, amount, code)
			}
		}
		if card.MaxCopies != nil && *card.MaxCopies <= 0 {
			add("Card '%s' has non-positive maxCopies value '%d'.", card.ID, *card.MaxCopies)
		}
		if card.DropWeight != nil && *card.DropWeight <= 0 {
			add("Card '%s' has non-positive weight '%s'.", card.ID, formatValue(*card.DropWeight))
		}
		if card.ImagePath != "" {
			resolved := card.ImagePath
			if !filepath.IsAbs(resolved) {
				resolved = filepath.Join(baseDir, resolved)
			}
			if _, err := os.Stat(resolved); err != nil {
				add("Card '%s' local image '%s' not found.", card.ID, card.ImagePath)
			}
		}
	}

	for _, pack := range cat.Packs() {
		if len(pack.Cards) == 0 {
			add("Pack '%s' does not contain any cards.", pack.ID)
		}
		for _, cid := range pack.Cards {
			if _, ok := cardIDs[cid]; !ok {
				add("Pack '%s' references unknown card '%s'.", pack.ID, cid)
			}
		}
		for _, cid := range slices.Sorted(maps.Keys(pack.CardWeights)) {
			if _, ok := cardIDs[cid]; !ok {
				add("Pack '%s' cardWeights references unknown card '%s'.", pack.ID, cid)
			}
			if pack.CardWeights[cid] <= 0 {
				add("Pack '%s' cardWeight for '%s' must be positive.", pack.ID, cid)
			}
		}
		for _, r := range slices.Sorted(maps.Keys(pack.RarityWeights)) {
			if _, ok := model.ParseRarity(r); !ok {
				add("Pack '%s' rarityWeights references invalid rarity '%s'.", pack.ID, r)
			}
			if pack.RarityWeights[r] <= 0 {
				add("Pack '%s' rarityWeight for '%s' must be positive.", pack.ID, r)
			}
		}
	}

	if rules.BaseCooldownSeconds < 0 {
		add("Drop configuration 'base_cooldown_seconds' cannot be negative.")
	}
	if rules.MaxCardsPerDrop <= 0 {
		add("Drop configuration 'max_cards_per_drop' must be positive.")
	}
	for _, r := range slices.Sorted(maps.Keys(rules.RarityWeights)) {
		if _, ok := model.ParseRarity(r); !ok {
			add("Drop configuration rarity weight contains invalid rarity '%s'.", r)
		}
		if rules.RarityWeights[r] <= 0 {
			add("Drop configuration rarity weight for '%s' must be positive.", r)
		}
	}
	return errs
}
