// Package pagination は並び済みの一覧をページに切り出す。
// コレクションの表現には依存しない純粋関数だけを置く。
package pagination

// ページの位置情報。毎回計算し直すので保存はしない。
type Info struct {
	CurrentPage  int `json:"current_page"`
	ItemsPerPage int `json:"items_per_page"`
	TotalItems   int `json:"total_items"`
	TotalPages   int `json:"total_pages"`
}

func (i Info) HasPrevious() bool {
	return i.CurrentPage > 1
}

func (i Info) HasNext() bool {
	return i.CurrentPage < i.TotalPages
}

// ceil(total / pageSize)。total か pageSize が0以下なら0。
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Paginate は items の page ページ目（1始まり）を返す。
// page < 1 は1に丸める。範囲外のページは空スライスでエラーにはしない。
// 返すスライスはコピーなので呼び出し側が書き換えても items には影響しない。
func Paginate[T any](items []T, page, pageSize int) ([]T, Info) {
	if page < 1 {
		page = 1
	}

	info := Info{
		CurrentPage:  page,
		ItemsPerPage: pageSize,
		TotalItems:   len(items),
		TotalPages:   TotalPages(len(items), pageSize),
	}

	if pageSize <= 0 {
		return []T{}, info
	}

	// page が大きすぎると掛け算があふれるので先に判定
	if page-1 >= info.TotalPages {
		return []T{}, info
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, info
}
