package google

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cloudbudget/internal/core"
	ports "cloudbudget/internal/sheets"
)

// Sheet names, one per collection.
const (
	SheetTransactions = "Transactions"
	SheetAccounts     = "Accounts"
	SheetCategories   = "Categories"
	SheetTags         = "Tags"
	SheetMerchants    = "Merchants"
	SheetCurrencies   = "Currencies"
	SheetMetadata     = "Metadata"
)

// AllSheets lists every sheet a backup uses, in write order.
var AllSheets = []string{
	SheetTransactions, SheetAccounts, SheetCategories, SheetTags,
	SheetMerchants, SheetCurrencies, SheetMetadata,
}

var (
	transactionHeaders = []string{"id", "type", "amount", "category", "date", "note", "tags", "merchant", "account", "fromAccount", "toAccount", "fee", "exchangeRate", "toAmount"}
	accountHeaders     = []string{"id", "name", "type", "balance", "currency", "isVirtual", "icon", "color", "group"}
	categoryHeaders    = []string{"id", "name", "type", "icon"}
	tagHeaders         = []string{"id", "name", "color"}
	merchantHeaders    = []string{"id", "name", "category"}
	currencyHeaders    = []string{"id", "code", "name", "symbol"}
	metadataHeaders    = []string{"key", "value"}
)

// encodeBackup turns b into one value matrix per sheet, header row first.
func encodeBackup(b ports.BackupData) map[string][][]interface{} {
	out := make(map[string][][]interface{}, len(AllSheets))

	txs := [][]interface{}{toRow(transactionHeaders)}
	for _, t := range b.Transactions {
		tags, _ := json.Marshal(nonNilTags(t.Tags))
		txs = append(txs, []interface{}{
			t.ID, string(t.Type), t.Amount.InexactFloat64(), t.Category, t.Date.String(),
			t.Note, string(tags), t.Merchant, t.Account, t.FromAccount, t.ToAccount,
			optional(t.Fee), optional(t.ExchangeRate), optional(t.ToAmount),
		})
	}
	out[SheetTransactions] = txs

	accs := [][]interface{}{toRow(accountHeaders)}
	for _, a := range b.Accounts {
		accs = append(accs, []interface{}{
			a.ID, a.Name, string(a.Type), a.InitialBalance.InexactFloat64(), a.Currency,
			strconv.FormatBool(a.IsVirtual), a.Icon, a.Color, a.Group,
		})
	}
	out[SheetAccounts] = accs

	cats := [][]interface{}{toRow(categoryHeaders)}
	for _, c := range b.Categories {
		cats = append(cats, []interface{}{c.ID, c.Name, string(c.Type), c.Icon})
	}
	out[SheetCategories] = cats

	tags := [][]interface{}{toRow(tagHeaders)}
	for _, t := range b.Tags {
		tags = append(tags, []interface{}{t.ID, t.Name, t.Color})
	}
	out[SheetTags] = tags

	merchants := [][]interface{}{toRow(merchantHeaders)}
	for _, m := range b.Merchants {
		merchants = append(merchants, []interface{}{m.ID, m.Name, m.Category})
	}
	out[SheetMerchants] = merchants

	curs := [][]interface{}{toRow(currencyHeaders)}
	for _, c := range b.Currencies {
		curs = append(curs, []interface{}{c.ID, c.Code, c.Name, c.Symbol})
	}
	out[SheetCurrencies] = curs

	out[SheetMetadata] = [][]interface{}{
		toRow(metadataHeaders),
		{"exportDate", b.ExportDate.UTC().Format(time.RFC3339)},
		{"version", ports.FormatVersion},
	}
	return out
}

// decodeBackup is the inverse of encodeBackup, tolerant of sheets edited by
// hand: columns are found by header name in any case, with the historical
// column position as fallback, and unreadable numbers become zero. Rows
// without an id get one derived from now.
func decodeBackup(values map[string][][]interface{}, now time.Time) ports.BackupData {
	var b ports.BackupData
	nextID := idSource(now)

	forRows(values[SheetTransactions], func(get getter) {
		b.Transactions = append(b.Transactions, core.Transaction{
			ID:           get.id("id", 0, nextID),
			Type:         core.TransactionType(get.str("type", 1, string(core.Expense))),
			Amount:       core.SafeDecimal(get.str("amount", 2, "")),
			Category:     get.str("category", -1, ""),
			Date:         parseDateOr(get.str("date", 4, ""), now),
			Note:         get.str("note", -1, ""),
			Tags:         parseTags(get.str("tags", -1, "")),
			Merchant:     get.str("merchant", -1, ""),
			Account:      get.str("account", -1, ""),
			FromAccount:  get.str("fromAccount", -1, ""),
			ToAccount:    get.str("toAccount", -1, ""),
			Fee:          core.OptionalDecimal(get.str("fee", -1, "")),
			ExchangeRate: core.OptionalDecimal(get.str("exchangeRate", -1, "")),
			ToAmount:     core.OptionalDecimal(get.str("toAmount", -1, "")),
		})
	})

	forRows(values[SheetAccounts], func(get getter) {
		b.Accounts = append(b.Accounts, core.Account{
			ID:             get.id("id", 0, nextID),
			Name:           get.str("name", 1, "Unnamed account"),
			Type:           core.AccountType(get.str("type", 2, string(core.Cash))),
			InitialBalance: core.SafeDecimal(get.str("balance", 3, "")),
			Currency:       get.str("currency", -1, "TWD"),
			IsVirtual:      parseBool(get.str("isVirtual", 5, "")),
			Icon:           get.str("icon", -1, ""),
			Color:          get.str("color", 7, ""),
			Group:          get.str("group", -1, ""),
		})
	})

	forRows(values[SheetCategories], func(get getter) {
		b.Categories = append(b.Categories, core.Category{
			ID:   get.id("id", 0, nextID),
			Name: get.str("name", 1, "Uncategorized"),
			Type: core.TransactionType(get.str("type", 2, string(core.Expense))),
			Icon: get.str("icon", -1, ""),
		})
	})

	forRows(values[SheetTags], func(get getter) {
		b.Tags = append(b.Tags, core.Tag{
			ID:    get.id("id", 0, nextID),
			Name:  get.str("name", 1, "Unnamed tag"),
			Color: get.str("color", -1, ""),
		})
	})

	forRows(values[SheetMerchants], func(get getter) {
		b.Merchants = append(b.Merchants, core.Merchant{
			ID:       get.id("id", 0, nextID),
			Name:     get.str("name", 1, "Unnamed merchant"),
			Category: get.str("category", -1, ""),
		})
	})

	forRows(values[SheetCurrencies], func(get getter) {
		b.Currencies = append(b.Currencies, core.Currency{
			ID:     get.id("id", 0, nextID),
			Code:   get.str("code", 1, ""),
			Name:   get.str("name", 2, ""),
			Symbol: get.str("symbol", 3, ""),
		})
	})
	if len(b.Currencies) == 0 {
		b.Currencies = core.DefaultCurrencies()
	}

	b.ExportDate = now
	for _, row := range rowsAfterHeader(values[SheetMetadata]) {
		if safeGet(row, 0) != "exportDate" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, safeGet(row, 1)); err == nil {
			b.ExportDate = t
		}
	}
	return b
}

// getter reads one cell of a row by header name.
type getter struct {
	row   []string
	index map[string]int
}

// str returns the named column, then the column at pos when the name is
// absent or empty (pos < 0 disables the fallback), then def.
func (g getter) str(field string, pos int, def string) string {
	if i, ok := g.index[strings.ToLower(field)]; ok {
		if v := safeGet(g.row, i); v != "" {
			return v
		}
	}
	if pos >= 0 {
		if v := safeGet(g.row, pos); v != "" {
			return v
		}
	}
	return def
}

func (g getter) id(field string, pos int, next func() int64) int64 {
	s := g.str(field, pos, "")
	if s == "" {
		return next()
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d.IntPart()
	}
	return next()
}

func forRows(values [][]interface{}, fn func(getter)) {
	if len(values) == 0 {
		return
	}
	headers := toStrings(values[0])
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToLower(h)] = i
	}
	for _, row := range rowsAfterHeader(values) {
		if isBlank(row) {
			continue
		}
		fn(getter{row: row, index: index})
	}
}

func rowsAfterHeader(values [][]interface{}) [][]string {
	if len(values) < 2 {
		return nil
	}
	out := make([][]string, 0, len(values)-1)
	for _, v := range values[1:] {
		out = append(out, toStrings(v))
	}
	return out
}

// parseTags reads a JSON array, falling back to comma separated values and
// then to a single tag.
func parseTags(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "[]" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err == nil {
		return tags
	}
	if strings.Contains(s, ",") {
		for _, t := range strings.Split(s, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		return tags
	}
	return []string{s}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func parseDateOr(s string, now time.Time) core.Date {
	if d, err := core.ParseDate(s); err == nil {
		return d
	}
	return core.DateOf(now)
}

func idSource(now time.Time) func() int64 {
	next := now.UnixMilli()
	return func() int64 {
		next++
		return next
	}
}

func optional(d *decimal.Decimal) interface{} {
	if d == nil {
		return ""
	}
	return d.InexactFloat64()
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func toRow(headers []string) []interface{} {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return row
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx >= 0 && idx < len(arr) {
		return arr[idx]
	}
	return ""
}
