package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// aliases lists the historical spellings of one canonical field, canonical
// spelling first. The first alias holding a non-empty value wins.
type aliases []string

var sourceFields = struct {
	Type, Country, Bank, Currency, Account, Reference, Holder aliases
	Box, Denominations, Denomination, Quantity                aliases
}{
	Type:          aliases{"type", "payType", "paymentType", "pay_type"},
	Country:       aliases{"countryId", "country_id", "country"},
	Bank:          aliases{"bankId", "bank_id", "bank"},
	Currency:      aliases{"currencyId", "currency_id", "currency"},
	Account:       aliases{"accountNumber", "account_number", "account", "accountId", "numberAccount"},
	Reference:     aliases{"reference", "referenceNumber", "operationNumber", "operation"},
	Holder:        aliases{"holderName", "holder_name", "holder", "accountHolder", "titular"},
	Box:           aliases{"boxId", "box_id", "cashBoxId", "box"},
	Denominations: aliases{"denominations", "bills", "cashDetail", "detail"},
	Denomination:  aliases{"denomination", "value", "bill"},
	Quantity:      aliases{"quantity", "qty", "count"},
}

var destinationFields = struct {
	Type, Note, Items                aliases
	BankName, PersonName, Label      aliases
	Account, Document, Phone, Amount aliases
}{
	Type:       aliases{"type", "destinationType", "payType"},
	Note:       aliases{"note", "notes", "observation", "comment"},
	Items:      aliases{"items", "destinations", "recipients", "accounts"},
	BankName:   aliases{"bankName", "bank_name", "bank"},
	PersonName: aliases{"personName", "fullName", "full_name", "name", "beneficiary"},
	Label:      aliases{"label"},
	Account:    aliases{"identifier", "accountNumber", "account_number", "account", "cci"},
	Document:   aliases{"identifier", "documentNumber", "document_number", "document", "dni"},
	Phone:      aliases{"phone", "phoneNumber", "phone_number", "cellphone"},
	Amount:     aliases{"amount", "value"},
}

var sourceTypeValues = map[string]SourceType{
	"digital":  SourceDigital,
	"bank":     SourceDigital,
	"transfer": SourceDigital,
	"deposit":  SourceDigital,
	"cash":     SourceCash,
}

var destinationTypeValues = map[string]DestinationType{
	"bank":     DestinationBank,
	"digital":  DestinationBank,
	"transfer": DestinationBank,
	"person":   DestinationPerson,
	"people":   DestinationPerson,
	"cash":     DestinationPerson,
}

// NormalizeSource turns a loosely shaped payment source into its canonical
// form. Empty, unparseable or unidentifiable input yields nil.
func NormalizeSource(raw any) *PaySource {
	obj, ok := decodeObject(raw)
	if !ok {
		return nil
	}

	typ, ok := sourceTypeValues[strings.ToLower(lookupString(obj, sourceFields.Type))]
	if !ok {
		switch {
		case lookupString(obj, sourceFields.Bank) != "" || lookupString(obj, sourceFields.Account) != "":
			typ = SourceDigital
		case lookupString(obj, sourceFields.Box) != "" || len(lookupList(obj, sourceFields.Denominations)) > 0:
			typ = SourceCash
		default:
			return nil
		}
	}

	src := &PaySource{
		Type:       typ,
		CurrencyID: lookupString(obj, sourceFields.Currency),
	}

	if typ == SourceDigital {
		src.CountryID = lookupString(obj, sourceFields.Country)
		src.BankID = lookupString(obj, sourceFields.Bank)
		src.AccountNumber = lookupString(obj, sourceFields.Account)
		src.Reference = lookupString(obj, sourceFields.Reference)
		src.HolderName = lookupString(obj, sourceFields.Holder)
		return src
	}

	src.BoxID = lookupString(obj, sourceFields.Box)
	for _, entry := range lookupList(obj, sourceFields.Denominations) {
		pair, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		denomination, okD := lookupDecimal(pair, sourceFields.Denomination)
		quantity, okQ := lookupDecimal(pair, sourceFields.Quantity)
		if !okD || !okQ || !denomination.IsPositive() || !quantity.IsPositive() {
			continue
		}
		src.Denominations = append(src.Denominations, CashDenomination{
			Denomination: denomination,
			Quantity:     quantity,
		})
	}
	total := CashTotalOf(src.Denominations)
	src.CashTotal = &total

	return src
}

// NormalizeDestination turns a loosely shaped destination into its canonical
// form. A flat object with item fields is read as a single item, a bare array
// as the item list. Malformed items are dropped.
func NormalizeDestination(raw any) *Destination {
	value, ok := decodeValue(raw)
	if !ok {
		return nil
	}

	var (
		obj      map[string]any
		rawItems []any
	)
	switch v := value.(type) {
	case map[string]any:
		obj = v
		rawItems = lookupList(obj, destinationFields.Items)
		if rawItems == nil && looksLikeDestinationItem(obj) {
			rawItems = []any{obj}
		}
	case []any:
		obj = map[string]any{}
		rawItems = v
	default:
		return nil
	}

	itemObjs := make([]map[string]any, 0, len(rawItems))
	for _, entry := range rawItems {
		if m, ok := entry.(map[string]any); ok {
			itemObjs = append(itemObjs, m)
		}
	}

	explicit := lookupString(obj, destinationFields.Type)
	typ, typed := destinationTypeValues[strings.ToLower(explicit)]
	if !typed {
		typ = DestinationPerson
		for _, item := range itemObjs {
			// "identifier" is shared by both shapes and says nothing about the type.
			if lookupString(item, destinationFields.BankName) != "" || lookupString(item, destinationFields.Account[1:]) != "" {
				typ = DestinationBank
				break
			}
		}
	}

	dest := &Destination{
		Note:  lookupString(obj, destinationFields.Note),
		Type:  typ,
		Items: make([]DestinationItem, 0, len(itemObjs)),
	}

	for _, m := range itemObjs {
		item, ok := normalizeDestinationItem(m, typ)
		if ok {
			dest.Items = append(dest.Items, item)
		}
	}

	if dest.Note == "" && len(dest.Items) == 0 && explicit == "" {
		return nil
	}

	return dest
}

func normalizeDestinationItem(m map[string]any, typ DestinationType) (DestinationItem, bool) {
	labelKeys, otherLabelKeys := destinationFields.PersonName, destinationFields.BankName
	idKeys, otherIDKeys := destinationFields.Document, destinationFields.Account
	if typ == DestinationBank {
		labelKeys, otherLabelKeys = otherLabelKeys, labelKeys
		idKeys, otherIDKeys = otherIDKeys, idKeys
	}

	item := DestinationItem{
		Label: firstNonEmpty(
			lookupString(m, destinationFields.Label),
			lookupString(m, labelKeys),
			lookupString(m, otherLabelKeys),
		),
		Identifier: firstNonEmpty(lookupString(m, idKeys), lookupString(m, otherIDKeys)),
		Phone:      lookupString(m, destinationFields.Phone),
	}

	if raw, present := lookupRaw(m, destinationFields.Amount); present {
		amount, ok := parseDecimal(raw)
		if !ok {
			return DestinationItem{}, false
		}
		item.Amount = amount
	}

	if item.Label == "" && item.Identifier == "" && item.Phone == "" && item.Amount.IsZero() {
		return DestinationItem{}, false
	}

	return item, true
}

func looksLikeDestinationItem(m map[string]any) bool {
	for _, keys := range []aliases{
		destinationFields.BankName, destinationFields.PersonName, destinationFields.Label,
		destinationFields.Account, destinationFields.Document, destinationFields.Amount,
	} {
		if _, ok := lookupRaw(m, keys); ok {
			return true
		}
	}
	return false
}

// decodeValue unwraps raw into a decoded JSON value. Strings and byte slices
// are parsed, and one extra level of string encoding is tolerated.
func decodeValue(raw any) (any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case string:
		return decodeJSON([]byte(v), 1)
	case []byte:
		return decodeJSON(v, 1)
	case json.RawMessage:
		return decodeJSON(v, 1)
	case map[string]any:
		return v, len(v) > 0
	case []any:
		return v, true
	case PaySource, *PaySource, Destination, *Destination:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		return decodeJSON(data, 0)
	default:
		return nil, false
	}
}

func decodeObject(raw any) (map[string]any, bool) {
	value, ok := decodeValue(raw)
	if !ok {
		return nil, false
	}
	obj, ok := value.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil, false
	}
	return obj, true
}

func decodeJSON(data []byte, depth int) (any, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, false
	}

	if s, ok := value.(string); ok && depth > 0 {
		return decodeJSON([]byte(s), depth-1)
	}

	switch value.(type) {
	case map[string]any, []any:
		return value, true
	default:
		return nil, false
	}
}

// lookupRaw returns the first alias holding a non-empty value.
func lookupRaw(m map[string]any, keys aliases) (any, bool) {
	for _, key := range keys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func lookupString(m map[string]any, keys aliases) string {
	for _, key := range keys {
		if s := stringValue(m[key]); s != "" {
			return s
		}
	}
	return ""
}

func lookupDecimal(m map[string]any, keys aliases) (decimal.Decimal, bool) {
	v, ok := lookupRaw(m, keys)
	if !ok {
		return decimal.Zero, false
	}
	return parseDecimal(v)
}

// lookupList returns the first alias holding a list, also accepting a list
// encoded as a JSON string.
func lookupList(m map[string]any, keys aliases) []any {
	for _, key := range keys {
		switch v := m[key].(type) {
		case []any:
			return v
		case string:
			if decoded, ok := decodeJSON([]byte(v), 0); ok {
				if list, isList := decoded.([]any); isList {
					return list
				}
			}
		}
	}
	return nil
}

// stringValue renders scalar identifiers. Objects such as {"id": 3, "name":
// "BCP"} contribute their id.
func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case map[string]any:
		return firstNonEmpty(stringValue(s["id"]), stringValue(s["value"]))
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
