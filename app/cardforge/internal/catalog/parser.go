package catalog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/cardforge/app/cardforge/internal/model"
	"gopkg.in/yaml.v3"
)

// Definition 解析后的目录，顺序与文档一致
type Definition struct {
	Currencies []model.Currency
	Cards      []*model.Card
	Packs      []*model.CardPack
}

// Parse 校验并解析目录文档，校验失败返回 *ValidationError
func Parse(doc map[string]any) (*Definition, error) {
	if msgs := Validate(doc); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	def := &Definition{}
	for _, item := range mustList(doc["currencies"]) {
		def.Currencies = append(def.Currencies, parseCurrency(mustMap(item)))
	}
	for _, item := range mustList(doc["cards"]) {
		def.Cards = append(def.Cards, parseCard(mustMap(item)))
	}
	for _, item := range mustList(doc["packs"]) {
		def.Packs = append(def.Packs, parsePack(mustMap(item)))
	}
	return def, nil
}

// Register 将定义注册到目录；已存在的货币保留原定义
func (d *Definition) Register(cat *Catalog, currencies *CurrencyRegistry) error {
	for _, c := range d.Currencies {
		if err := currencies.Register(c); err != nil && !errors.Is(err, ErrDuplicateKey) {
			return err
		}
	}
	for _, card := range d.Cards {
		if err := cat.RegisterCard(card); err != nil {
			return err
		}
	}
	for _, pack := range d.Packs {
		if err := cat.RegisterPack(pack); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile 读取 JSON 或 YAML 目录文件为通用文档
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog %s", path)
	}

	doc := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrapf(err, "decode catalog %s", path)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.Wrapf(err, "decode catalog %s", path)
		}
	}
	return doc, nil
}

// LoadDefinition 读取并解析目录文件
func LoadDefinition(path string) (*Definition, error) {
	doc, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(doc)
}

// ValidateFile 读取目录文件并返回校验结果
func ValidateFile(path string) ([]string, error) {
	doc, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Validate(doc), nil
}

func parseCurrency(entry map[string]any) model.Currency {
	code, _ := asString(entry["code"])
	c := model.Currency{Code: code, Name: titleCase(code)}
	if name, ok := asString(entry["name"]); ok {
		c.Name = name
	}
	if p, ok := asInt(entry["precision"]); ok {
		c.Precision = int(p)
	}
	if desc, ok := asString(entry["description"]); ok {
		c.Description = desc
	}
	return c
}

func parseCard(entry map[string]any) *model.Card {
	card := &model.Card{Rarity: model.RarityCommon}
	card.ID, _ = asString(entry["id"])
	card.Name, _ = asString(entry["name"])
	card.Description, _ = asString(entry["description"])
	if r, ok := model.ParseRarity(stringOr(entry["rarity"], "")); ok {
		card.Rarity = r
	}
	if n, ok := asInt(entry["maxCopies"]); ok {
		copies := int(n)
		card.MaxCopies = &copies
	}
	if w, ok := asFloat(entry["weight"]); ok && w > 0 {
		card.DropWeight = &w
	}

	reward, _ := asMap(entry["reward"])
	card.Reward.Currencies = make(map[string]int64)
	if currencies, ok := asMap(reward["currencies"]); ok {
		for code, amount := range currencies {
			n, _ := asInt(amount)
			card.Reward.Currencies[code] = n
		}
	}
	card.Reward.Experience, _ = asInt(reward["experience"])

	if tags, ok := asList(entry["tags"]); ok {
		for _, t := range tags {
			card.Tags = append(card.Tags, formatValue(t))
		}
	}
	if img, ok := asMap(entry["image"]); ok {
		card.ImageURL = stringOr(img["url"], "")
		card.ImagePath = stringOr(img["local"], "")
		card.ImageCaption = stringOr(img["caption"], "")
	}
	return card
}

func parsePack(entry map[string]any) *model.CardPack {
	id, _ := asString(entry["id"])
	pack := &model.CardPack{
		ID:              id,
		Name:            stringOr(entry["name"], id),
		AllowDuplicates: true,
		MaxPerRoll:      1,
	}
	for _, c := range mustList(entry["cards"]) {
		pack.Cards = append(pack.Cards, formatValue(c))
	}
	if b, ok := entry["allowDuplicates"].(bool); ok {
		pack.AllowDuplicates = b
	}
	if n, ok := asInt(entry["maxPerRoll"]); ok {
		pack.MaxPerRoll = int(n)
	}
	pack.CardWeights = floatMap(entry["cardWeights"])
	pack.RarityWeights = floatMap(entry["rarityWeights"])
	return pack
}

func floatMap(raw any) map[string]float64 {
	m, ok := asMap(raw)
	if !ok || len(m) == 0 {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k], _ = asFloat(v)
	}
	return out
}

func stringOr(v any, fallback string) string {
	if s, ok := asString(v); ok {
		return s
	}
	return fallback
}

func mustList(v any) []any {
	l, _ := asList(v)
	return l
}

func mustMap(v any) map[string]any {
	m, _ := asMap(v)
	return m
}
