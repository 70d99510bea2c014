package scm

import (
	"github.com/shaiso/rd-cli/internal/client"
	"github.com/shaiso/rd-cli/internal/domain"
)

// Item — SCM item в общем для export и import виде.
type Item struct {
	Kind    domain.Integration
	ID      string
	Tracked bool
	Deleted bool

	// JobID — job, связанный с item. Пусто, если job нет.
	JobID string
}

// Selection — флаги "выбрать всё" команды perform.
type Selection struct {
	AllItems     bool
	AllModified  bool // только export
	AllDeleted   bool // только export
	AllTracked   bool // только import
	AllUntracked bool // только import
}

// Applies возвращает true, если для integration задан хотя бы один
// применимый флаг. Тогда перед perform нужно запросить ActionInputs.
func (s Selection) Applies(kind domain.Integration) bool {
	if s.AllItems {
		return true
	}
	if kind.IsExport() {
		return s.AllModified || s.AllDeleted
	}
	return s.AllTracked || s.AllUntracked
}

// wants — единый предикат выбора item.
func (s Selection) wants(it Item) bool {
	if s.AllItems {
		return true
	}
	if it.Kind.IsExport() {
		if it.Deleted {
			return s.AllDeleted
		}
		return s.AllModified
	}
	return (s.AllTracked && it.Tracked) || (s.AllUntracked && !it.Tracked)
}

// Selected — результат выбора. Set* отмечают поля запроса,
// которые заменяются целиком.
type Selected struct {
	Items        []string
	DeletedItems []string
	DeletedJobs  []string

	SetItems        bool
	SetDeletedItems bool
	SetDeletedJobs  bool
}

// SelectItems вычисляет выбор для kind по items и флагам sel.
//
//   - export: не удалённые → Items, удалённые → DeletedItems (по itemId)
//   - import: не удалённые → Items, удалённые с job → DeletedJobs (по jobId)
//
// Export не трогает jobs, import не трогает deletedItems.
func SelectItems(kind domain.Integration, items []Item, sel Selection) Selected {
	out := Selected{
		Items:        []string{},
		DeletedItems: []string{},
		DeletedJobs:  []string{},
	}
	if !sel.Applies(kind) {
		return out
	}

	if kind.IsExport() {
		out.SetItems = sel.AllItems || sel.AllModified
		out.SetDeletedItems = sel.AllItems || sel.AllDeleted
	} else {
		out.SetItems = true
		out.SetDeletedJobs = true
	}

	for _, it := range items {
		if it.Kind != kind || !sel.wants(it) {
			continue
		}
		switch {
		case !it.Deleted:
			out.Items = append(out.Items, it.ID)
		case kind.IsExport():
			out.DeletedItems = append(out.DeletedItems, it.ID)
		case it.JobID != "":
			out.DeletedJobs = append(out.DeletedJobs, it.JobID)
		}
	}

	out.Items = unique(out.Items)
	out.DeletedItems = unique(out.DeletedItems)
	out.DeletedJobs = unique(out.DeletedJobs)
	return out
}

// Apply заменяет поля запроса, отмеченные Set*.
func (s Selected) Apply(req client.ScmActionPerform) client.ScmActionPerform {
	if s.SetItems {
		req.Items = s.Items
	}
	if s.SetDeletedItems {
		req.Deleted = s.DeletedItems
	}
	if s.SetDeletedJobs {
		req.DeletedJobs = s.DeletedJobs
	}
	return req
}

// ItemsFromInputs переводит items ответа ActionInputs в []Item.
func ItemsFromInputs(kind domain.Integration, inputs *client.ScmActionInputs) []Item {
	if kind.IsExport() {
		items := make([]Item, 0, len(inputs.ExportItems))
		for _, e := range inputs.ExportItems {
			it := Item{Kind: kind, ID: e.ItemID, Deleted: e.Deleted}
			if e.Job != nil {
				it.JobID = e.Job.JobID
			}
			items = append(items, it)
		}
		return items
	}

	items := make([]Item, 0, len(inputs.ImportItems))
	for _, i := range inputs.ImportItems {
		it := Item{Kind: kind, ID: i.ItemID, Tracked: i.Tracked, Deleted: i.Deleted}
		if i.Job != nil {
			it.JobID = i.Job.JobID
		}
		items = append(items, it)
	}
	return items
}

// unique убирает повторы, сохраняя порядок. nil превращается в [].
func unique(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, v := range list {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
