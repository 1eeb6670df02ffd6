package core

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Values 把分页请求编码为排序接口的查询参数。
func (r PageRequest) Values() url.Values {
	v := url.Values{}
	if r.Mode != "" {
		v.Set("mode", string(r.Mode))
	}
	v.Set("seed", strconv.FormatInt(int64(r.Seed), 10))
	v.Set("page", strconv.Itoa(r.Page))
	v.Set("pageSize", strconv.Itoa(r.PageSize))
	if r.UserID != "" {
		v.Set("userId", r.UserID)
	}
	f := r.Filters
	setIf(v, "category", f.Category)
	setIf(v, "gender", f.Gender)
	setIf(v, "condition", f.Condition)
	setIf(v, "q", f.Query)
	setIf(v, "excludeSeller", f.ExcludeSeller)
	for _, s := range f.Sizes {
		v.Add("size", s)
	}
	if f.MinPrice != nil {
		v.Set("minPrice", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		v.Set("maxPrice", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	return v
}

func setIf(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

// ParsePageRequest 解析排序接口的查询参数。page 缺省为 1，pageSize 缺省为 DefaultPageSize；
// 也接受 offset，此时 offset 必须是 pageSize 的整数倍。
func ParsePageRequest(v url.Values) (PageRequest, error) {
	mode, err := ParseRankMode(v.Get("mode"))
	if err != nil {
		return PageRequest{}, err
	}
	req := PageRequest{Mode: mode, Page: 1, PageSize: DefaultPageSize, UserID: v.Get("userId")}

	if s := v.Get("seed"); s != "" {
		seed, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return req, invalidParam("seed", s)
		}
		req.Seed = int32(seed)
	}
	if s := v.Get("pageSize"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return req, invalidParam("pageSize", s)
		}
		req.PageSize = n
	}
	if s := v.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return req, invalidParam("page", s)
		}
		req.Page = n
	} else if s := v.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || req.PageSize <= 0 || n%req.PageSize != 0 {
			return req, invalidParam("offset", s)
		}
		req.Page = n/req.PageSize + 1
	}

	f := Filters{
		Category:      v.Get("category"),
		Gender:        v.Get("gender"),
		Condition:     v.Get("condition"),
		Query:         v.Get("q"),
		ExcludeSeller: v.Get("excludeSeller"),
	}
	for _, s := range v["size"] {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				f.Sizes = append(f.Sizes, part)
			}
		}
	}
	if f.MinPrice, err = parsePrice(v, "minPrice"); err != nil {
		return req, err
	}
	if f.MaxPrice, err = parsePrice(v, "maxPrice"); err != nil {
		return req, err
	}
	req.Filters = f
	return req, req.Validate()
}

func parsePrice(v url.Values, key string) (*float64, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil || p < 0 {
		return nil, invalidParam(key, s)
	}
	return &p, nil
}

func invalidParam(key, val string) error {
	return NewDomainError(ModuleCatalog, ErrorCodeInvalidInput, fmt.Sprintf("invalid %s %q", key, val))
}
