package catalog

import (
	"fmt"

	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
)

// Validate 校验目录文档，一次性收集全部错误，不做任何 I/O
func Validate(doc map[string]any) []string {
	v := &docValidator{}
	currencyCodes := v.currencies(doc["currencies"])
	cardIDs := v.cards(doc["cards"], currencyCodes)
	v.packs(doc["packs"], cardIDs)
	return v.errs
}

type docValidator struct {
	errs []string
}

func (v *docValidator) add(format string, args ...any) {
	v.errs = append(v.errs, fmt.Sprintf(format, args...))
}

func (v *docValidator) currencies(raw any) map[string]struct{} {
	codes := make(map[string]struct{})
	list, ok := asList(raw)
	if !ok || len(list) == 0 {
		v.add("Catalog must contain non-empty 'currencies' array.")
		return codes
	}

	for i, item := range list {
		idx := i + 1
		entry, ok := asMap(item)
		if !ok {
			v.add("Currency #%d must be an object.", idx)
			continue
		}
		code, ok := asNonBlank(entry["code"])
		if !ok {
			v.add("Currency #%d must define non-empty 'code'.", idx)
			continue
		}
		if _, dup := codes[code]; dup {
			v.add("Currency code '%s' defined multiple times.", code)
		}
		codes[code] = struct{}{}
	}
	if _, ok := codes["coins"]; !ok {
		v.add("Currency 'coins' must be defined in catalog.")
	}
	return codes
}

func (v *docValidator) cards(raw any, currencyCodes map[string]struct{}) map[string]struct{} {
	ids := make(map[string]struct{})
	list, ok := asList(raw)
	if !ok || len(list) == 0 {
		v.add("Catalog must contain non-empty 'cards' array.")
		return ids
	}

	for i, item := range list {
		idx := i + 1
		entry, ok := asMap(item)
		if !ok {
			v.add("Card #%d must be an object.", idx)
			continue
		}
		id, ok := asNonBlank(entry["id"])
		if !ok {
			v.add("Card #%d must define non-empty 'id'.", idx)
			continue
		}
		if _, dup := ids[id]; dup {
			v.add("Card id '%s' defined multiple times.", id)
		}
		ids[id] = struct{}{}
		v.card(id, entry, currencyCodes)
	}
	return ids
}

func (v *docValidator) card(id string, entry map[string]any, currencyCodes map[string]struct{}) {
	for _, field := range []string{"name", "description", "rarity"} {
		if _, ok := asNonBlank(entry[field]); !ok {
			v.add("Card '%s' must define non-empty '%s'.", id, field)
		}
	}

	rarity, _ := asString(entry["rarity"])
	if _, ok := model.ParseRarity(rarity); !ok {
		v.add("Card '%s' has invalid rarity '%s'.", id, formatValue(entry["rarity"]))
	}

	if raw, present := entry["maxCopies"]; present && raw != nil {
		if n, ok := asInt(raw); !ok || n <= 0 {
			v.add("Card '%s' has invalid 'maxCopies' value '%s'.", id, formatValue(raw))
		}
	}

	if raw, present := entry["weight"]; present && raw != nil {
		if f, ok := asFloat(raw); !ok || f <= 0 {
			v.add("Card '%s' has invalid 'weight' value '%s'.", id, formatValue(raw))
		}
	}

	reward, ok := asMap(entry["reward"])
	if !ok {
		v.add("Card '%s' must define 'reward' object.", id)
		return
	}
	v.reward(id, reward, currencyCodes)
	v.image(id, entry)
}

func (v *docValidator) reward(id string, reward map[string]any, currencyCodes map[string]struct{}) {
	if exp, present := reward["experience"]; !present {
		v.add("Card '%s' reward must include 'experience'.", id)
	} else if n, ok := asInt(exp); !ok || n < 0 {
		v.add("Card '%s' reward 'experience' must be non-negative integer.", id)
	}

	currencies, ok := asMap(reward["currencies"])
	if !ok || len(currencies) == 0 {
		v.add("Card '%s' reward must include 'currencies' dictionary.", id)
		return
	}
	if len(currencyCodes) > 0 {
		for _, code := range sortedEntries(currencies) {
			if _, known := currencyCodes[code]; !known {
				v.add("Card '%s' reward references unknown currency '%s'.", id, code)
			}
			if n, ok := asInt(currencies[code]); !ok || n < 0 {
				v.add("Card '%s' reward currency '%s' amount must be non-negative integer.", id, code)
			}
		}
	}
	if _, ok := currencies["coins"]; !ok {
		v.add("Card '%s' reward must include 'coins' currency.", id)
	}
}

func (v *docValidator) image(id string, entry map[string]any) {
	raw, present := entry["image"]
	if !present || raw == nil {
		return
	}
	img, ok := asMap(raw)
	if !ok {
		v.add("Card '%s' image must be an object.", id)
		return
	}

	url, local := img["url"], img["local"]
	if url != nil {
		if _, ok := asNonBlank(url); !ok {
			v.add("Card '%s' image.url must be a non-empty string.", id)
		}
	}
	if local != nil {
		if _, ok := asNonBlank(local); !ok {
			v.add("Card '%s' image.local must be a non-empty string.", id)
		}
	}
	if url == nil && local == nil {
		v.add("Card '%s' image must define either 'url' or 'local'.", id)
	}
}

func (v *docValidator) packs(raw any, cardIDs map[string]struct{}) {
	list, ok := asList(raw)
	if !ok || len(list) == 0 {
		v.add("Catalog must contain non-empty 'packs' array.")
		return
	}

	seen := make(map[string]struct{})
	for i, item := range list {
		idx := i + 1
		entry, ok := asMap(item)
		if !ok {
			v.add("Pack #%d must be an object.", idx)
			continue
		}
		id, ok := asNonBlank(entry["id"])
		if !ok {
			v.add("Pack #%d must define non-empty 'id'.", idx)
			continue
		}
		if _, dup := seen[id]; dup {
			v.add("Pack id '%s' defined multiple times.", id)
		}
		seen[id] = struct{}{}
		v.pack(id, entry, cardIDs)
	}
}

func (v *docValidator) pack(id string, entry map[string]any, cardIDs map[string]struct{}) {
	cards, ok := asList(entry["cards"])
	if !ok || len(cards) == 0 {
		v.add("Pack '%s' must define non-empty 'cards' array.", id)
	} else if len(cardIDs) > 0 {
		for _, c := range cards {
			cid, _ := asString(c)
			if _, known := cardIDs[cid]; !known {
				v.add("Pack '%s' references unknown card '%s'.", id, formatValue(c))
			}
		}
	}

	if raw, present := entry["maxPerRoll"]; present {
		if n, ok := asInt(raw); !ok || n <= 0 {
			v.add("Pack '%s' has invalid 'maxPerRoll' value '%s'.", id, formatValue(raw))
		}
	}

	if raw, present := entry["cardWeights"]; present && raw != nil {
		weights, ok := asMap(raw)
		if !ok || len(weights) == 0 {
			v.add("Pack '%s' has invalid 'cardWeights' definition.", id)
		} else {
			for _, cid := range sortedEntries(weights) {
				if _, known := cardIDs[cid]; len(cardIDs) > 0 && !known {
					v.add("Pack '%s' cardWeights reference unknown card '%s'.", id, cid)
				}
				if f, ok := asFloat(weights[cid]); !ok || f <= 0 {
					v.add("Pack '%s' cardWeights for '%s' must be positive number.", id, cid)
				}
			}
		}
	}

	if raw, present := entry["rarityWeights"]; present && raw != nil {
		weights, ok := asMap(raw)
		if !ok || len(weights) == 0 {
			v.add("Pack '%s' has invalid 'rarityWeights' definition.", id)
		} else {
			for _, r := range sortedEntries(weights) {
				if _, valid := model.ParseRarity(r); !valid {
					v.add("Pack '%s' rarityWeights contains invalid rarity '%s'.", id, r)
				}
				if f, ok := asFloat(weights[r]); !ok || f <= 0 {
					v.add("Pack '%s' rarityWeights for '%s' must be positive number.", id, r)
				}
			}
		}
	}
}
