package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// ==== Типы сортировки и параметров листинга ====

type SortKey struct {
	Field string
	Desc  bool
}

// maxLimit — потолок _limit; больше за один запрос не отдаём
const maxLimit = 1000

type ListParams struct {
	Limit      int // 0 — без ограничения
	Offset     int
	Sort       []SortKey
	Nulls      string // "last" (default) | "first"
	Conditions []Condition
}

// ParseListParams разбирает _limit/_offset/_sort/nulls и фильтры вида
//
//	Radius__gt=5
//	Classification__in=G,K
//	StarName=Sun
func ParseListParams(q url.Values) ListParams {
	lp := ListParams{Nulls: "last"}

	lv := q.Get("_limit")
	if lv == "" {
		lv = q.Get("limit")
	}
	if n, err := strconv.Atoi(lv); err == nil && n >= 0 {
		lp.Limit = min(n, maxLimit)
	}

	ov := q.Get("_offset")
	if ov == "" {
		ov = q.Get("offset")
	}
	if n, err := strconv.Atoi(ov); err == nil && n >= 0 {
		lp.Offset = n
	}

	sv := strings.TrimSpace(q.Get("_sort"))
	if sv == "" {
		sv = strings.TrimSpace(q.Get("sort"))
	}
	for _, p := range strings.Split(sv, ",") {
		p = strings.TrimSpace(p)
		desc := false
		if strings.HasPrefix(p, "-") {
			desc = true
			p = strings.TrimPrefix(p, "-")
		} else {
			p = strings.TrimPrefix(p, "+")
		}
		if p != "" {
			lp.Sort = append(lp.Sort, SortKey{Field: p, Desc: desc})
		}
	}

	if nulls := strings.ToLower(strings.TrimSpace(q.Get("nulls"))); nulls == "first" {
		lp.Nulls = "first"
	}

	// фильтры (исключаем служебные ключи); порядок стабильный
	keys := make([]string, 0, len(q))
	for key := range q {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		switch key {
		case "offset", "limit", "sort", "_offset", "_limit", "_sort", "nulls":
			continue
		}
		v := strings.TrimSpace(q.Get(key))
		if v == "" {
			continue
		}
		field, op := key, "eq"
		if i := strings.LastIndex(key, "__"); i > 0 {
			field, op = key[:i], key[i+2:]
		}
		var val any = v
		if op == "in" {
			var parts []any
			for _, p := range strings.Split(v, ",") {
				if p = strings.TrimSpace(p); p != "" {
					parts = append(parts, p)
				}
			}
			val = parts
		}
		lp.Conditions = append(lp.Conditions, Condition{Attribute: field, Operator: op, Value: val, Conjunction: "AND"})
	}
	return lp
}
