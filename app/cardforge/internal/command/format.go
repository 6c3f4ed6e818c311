package command

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/service"
)

func formatDrop(outcome *service.DropOutcome) string {
	lines := []string{"✨ Your cards:"}
	for _, c := range outcome.Cards {
		lines = append(lines, fmt.Sprintf("• %s [%s]", c.Name, c.Rarity))
	}
	if len(outcome.Reward.Currencies) > 0 {
		lines = append(lines, "", "💰 Rewards:")
		for _, code := range outcome.Reward.CurrencyCodes() {
			lines = append(lines, fmt.Sprintf("  %s: %d", code, outcome.Reward.Currencies[code]))
		}
	}
	if outcome.Reward.Experience != 0 {
		lines = append(lines, fmt.Sprintf("📈 Experience: %d", outcome.Reward.Experience))
	}
	if len(outcome.Duplicates) > 0 {
		lines = append(lines, "", "♻️ Duplicates:")
		for _, c := range outcome.Duplicates {
			lines = append(lines, "  "+c.Name)
		}
	}
	return strings.Join(lines, "\n")
}

func formatProfile(p *service.PlayerProfile, cooldown int64) string {
	name := p.Username
	if name == "" {
		name = fmt.Sprint(p.UserID)
	}
	lines := []string{"👤 Profile " + name, fmt.Sprintf("📈 Experience: %d", p.Experience), ""}

	if len(p.Wallet) > 0 {
		lines = append(lines, "💰 Balance:")
		for _, code := range sortedKeys(p.Wallet) {
			lines = append(lines, fmt.Sprintf("  %s: %d", code, p.Wallet[code]))
		}
	} else {
		lines = append(lines, "💰 Balance is empty.")
	}

	lines = append(lines, "")
	if cooldown > 0 {
		lines = append(lines, "⏱️ Cooldown: active", fmt.Sprintf("   %d seconds left", cooldown))
	} else {
		lines = append(lines, "⏱️ No cooldown")
	}

	owned := 0
	for _, n := range p.Inventory {
		owned += n
	}
	lines = append(lines, "", fmt.Sprintf("🗃️ Cards: %d", owned))
	return strings.Join(lines, "\n")
}

func formatCollection(inventory map[string]int, cards []*model.Card) string {
	if len(inventory) == 0 {
		return "Your collection is empty. Use /drop to get cards."
	}
	byID := make(map[string]*model.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}
	lines := []string{"📚 Collection:"}
	for _, id := range sortedKeys(inventory) {
		if c, ok := byID[id]; ok {
			lines = append(lines, fmt.Sprintf("• %s [%s]: %d", c.Name, c.Rarity, inventory[id]))
		} else {
			lines = append(lines, fmt.Sprintf("• %s: %d", id, inventory[id]))
		}
	}
	return strings.Join(lines, "\n")
}

func formatHistory(records []*model.DropHistoryRecord) string {
	if len(records) == 0 {
		return "No drops yet."
	}
	lines := []string{"🕘 Recent drops:"}
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("• %s: %s", r.Timestamp.UTC().Format(time.DateTime), strings.Join(r.CardIDs, ", ")))
	}
	return strings.Join(lines, "\n")
}

func formatPacks(packs []*model.CardPack) string {
	if len(packs) == 0 {
		return "No packs available yet."
	}
	lines := make([]string, 0, len(packs))
	for _, p := range packs {
		lines = append(lines, fmt.Sprintf("• %s: %s (%d cards)", p.ID, p.Name, len(p.Cards)))
	}
	return strings.Join(lines, "\n")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
