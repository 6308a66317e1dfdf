package mutate

import (
	"fmt"
	"sort"
	"strings"

	"school-schedule/internal/model"
)

// SharedName is reserved for the shared library pseudo-child and cannot be used as a
// child name.
const SharedName = model.SharedPool

// Result describes an applied command.
type Result struct {
	Op      model.Op `json:"op"`
	Subject string   `json:"subject,omitempty"`
	Summary string   `json:"summary"`
}

// Apply runs cmd against snap in place. On error snap may be partially modified, so
// callers should pass a clone and discard it on failure.
func Apply(snap *model.Snapshot, cmd model.Command) (Result, error) {
	if snap == nil {
		return Result{}, invalidf("nil snapshot")
	}
	if err := cmd.Validate(); err != nil {
		return Result{}, InvalidError{Msg: err.Error()}
	}
	snap.Normalize()

	res := Result{Op: cmd.Op, Subject: cmd.Subject()}
	var err error
	switch cmd.Op {
	case model.OpAddChild:
		res.Summary, err = AddChild(snap, cmd.Name)
	case model.OpRemoveChild:
		res.Summary, err = RemoveChild(snap, cmd.Name)
	case model.OpAddItem:
		res.Summary, err = AddItem(snap, cmd.ChildName, itemFrom(cmd))
	case model.OpRemoveItem:
		res.Summary, err = RemoveItem(snap, cmd.ChildName, cmd.ItemID)
	case model.OpUpdateItem:
		res.Summary, err = UpdateItem(snap, cmd.ChildName, cmd.ItemID, optName(cmd), cmd.Image)
	case model.OpAddLibraryItem:
		res.Summary, err = AddLibraryItem(snap, itemFrom(cmd))
	case model.OpRemoveLibraryItem:
		res.Summary, err = RemoveLibraryItem(snap, cmd.ItemID)
	case model.OpUpdateLibraryItem:
		res.Summary, err = UpdateLibraryItem(snap, cmd.ItemID, optName(cmd), cmd.Image)
	case model.OpAssignLibraryItem:
		res.Summary, err = AssignLibraryItem(snap, cmd.ChildName, cmd.ItemID)
	case model.OpSetWeeklySchedule:
		res.Summary, err = SetWeeklySchedule(snap, cmd.ChildName, cmd.Day, cmd.ItemIDs)
	case model.OpAddException:
		res.Summary, err = AddException(snap, cmd.ChildName, cmd.Date, cmd.ItemIDs)
	case model.OpRemoveException:
		res.Summary, err = RemoveException(snap, cmd.ChildName, cmd.Date)
	case model.OpSetSwitchoverTime:
		res.Summary, err = SetSwitchoverTime(snap, cmd.Time)
	default:
		err = invalidf("unknown op: %s", cmd.Op)
	}
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func itemFrom(cmd model.Command) model.Item {
	it := model.Item{ID: strings.TrimSpace(cmd.ItemID), Name: strings.TrimSpace(cmd.ItemName)}
	if cmd.Image != nil {
		it.Image = strings.TrimSpace(*cmd.Image)
	}
	return it
}

func optName(cmd model.Command) *string {
	name := strings.TrimSpace(cmd.ItemName)
	if name == "" {
		return nil
	}
	return &name
}

func findChild(snap *model.Snapshot, name string) (*model.Child, error) {
	c, ok := snap.FindChild(name)
	if !ok {
		return nil, NotFoundError{Kind: "child", ID: name}
	}
	return c, nil
}

// Children.

func AddChild(snap *model.Snapshot, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalidf("missing child name")
	}
	if name == SharedName {
		return "", invalidf("%q is reserved for the shared library", SharedName)
	}
	if snap.HasChild(name) {
		return "", ExistsError{Kind: "child", ID: name}
	}
	c := model.Child{Name: name, Items: []model.Item{}, WeeklySchedule: model.WeeklySchedule{}, Exceptions: map[string][]string{}}
	for _, d := range model.Weekdays {
		c.WeeklySchedule[d] = []string{}
	}
	snap.Children = append(snap.Children, c)
	return fmt.Sprintf("added child %s", name), nil
}

func RemoveChild(snap *model.Snapshot, name string) (string, error) {
	out := snap.Children[:0:0]
	for _, c := range snap.Children {
		if c.Name != name {
			out = append(out, c)
		}
	}
	if len(out) == len(snap.Children) {
		return "", NotFoundError{Kind: "child", ID: name}
	}
	snap.Children = out
	return fmt.Sprintf("removed child %s", name), nil
}

// Child items.

func AddItem(snap *model.Snapshot, child string, it model.Item) (string, error) {
	c, err := findChild(snap, child)
	if err != nil {
		return "", err
	}
	if _, ok := c.FindItem(it.ID); ok {
		return "", ExistsError{Kind: "item", ID: it.ID, Owner: child}
	}
	c.Items = append(c.Items, it)
	return fmt.Sprintf("added item %s to %s", it.Name, child), nil
}

// RemoveItem deletes a child item and prunes it from that child's weekly schedule and
// exceptions. Pruning an exception down to nothing leaves a day off.
func RemoveItem(snap *model.Snapshot, child, itemID string) (string, error) {
	c, err := findChild(snap, child)
	if err != nil {
		return "", err
	}
	kept := c.Items[:0:0]
	for _, it := range c.Items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(c.Items) {
		return "", NotFoundError{Kind: "item", ID: itemID}
	}
	c.Items = kept
	for d, ids := range c.WeeklySchedule {
		c.WeeklySchedule[d] = without(ids, itemID)
	}
	for date, ids := range c.Exceptions {
		c.Exceptions[date] = without(ids, itemID)
	}
	return fmt.Sprintf("removed item %s from %s", itemID, child), nil
}

func UpdateItem(snap *model.Snapshot, child, itemID string, name, image *string) (string, error) {
	c, err := findChild(snap, child)
	if err != nil {
		return "", err
	}
	it, ok := c.FindItem(itemID)
	if !ok {
		return "", NotFoundError{Kind: "item", ID: itemID}
	}
	applyUpdate(it, name, image)
	return fmt.Sprintf("updated item %s for %s", itemID, child), nil
}

func applyUpdate(it *model.Item, name, image *string) {
	if name != nil {
		it.Name = *name
	}
	if image != nil {
		it.Image = strings.TrimSpace(*image)
	}
}

// Shared library.

func AddLibraryItem(snap *model.Snapshot, it model.Item) (string, error) {
	if _, ok := snap.FindLibraryItem(it.ID); ok {
		return "", ExistsError{Kind: "item", ID: it.ID, Owner: "the library"}
	}
	snap.ItemLibrary = append(snap.ItemLibrary, it)
	return fmt.Sprintf("added library item %s", it.Name), nil
}

// RemoveLibraryItem deletes a shared item. Schedules that reference it keep the
// dangling ID; readers filter it out.
func RemoveLibraryItem(snap *model.Snapshot, itemID string) (string, error) {
	kept := snap.ItemLibrary[:0:0]
	for _, it := range snap.ItemLibrary {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(snap.ItemLibrary) {
		return "", NotFoundError{Kind: "library item", ID: itemID}
	}
	snap.ItemLibrary = kept
	return fmt.Sprintf("removed library item %s", itemID), nil
}

func UpdateLibraryItem(snap *model.Snapshot, itemID string, name, image *string) (string, error) {
	it, ok := snap.FindLibraryItem(itemID)
	if !ok {
		return "", NotFoundError{Kind: "library item", ID: itemID}
	}
	applyUpdate(it, name, image)
	return fmt.Sprintf("updated library item %s", itemID), nil
}

// AssignLibraryItem copies a shared item into a child's own pool under the same ID.
func AssignLibraryItem(snap *model.Snapshot, child, itemID string) (string, error) {
	lib, ok := snap.FindLibraryItem(itemID)
	if !ok {
		return "", NotFoundError{Kind: "library item", ID: itemID}
	}
	c, err := findChild(snap, child)
	if err != nil {
		return "", err
	}
	if _, ok := c.FindItem(itemID); ok {
		return "", ExistsError{Kind: "item", ID: itemID, Owner: child}
	}
	c.Items = append(c.Items, *lib)
	return fmt.Sprintf("assigned library item %s to %s", itemID, child), nil
}

// Schedules.

// checkIDs rejects IDs that resolve to neither the child's items nor the library.
// IDs in stored are accepted as they are: a list that already carries a dangling
// reference can be written back unchanged.
func checkIDs(snap *model.Snapshot, c *model.Child, ids []string, stored ...[]string) error {
	valid := map[string]bool{}
	for _, list := range stored {
		for _, id := range list {
			valid[id] = true
		}
	}
	for _, it := range c.Items {
		valid[it.ID] = true
	}
	for _, it := range snap.ItemLibrary {
		valid[it.ID] = true
	}
	var bad []string
	for _, id := range ids {
		if !valid[id] {
			bad = append(bad, id)
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return invalidf("invalid item ids for %s: %s", c.Name, strings.Join(bad, ", "))
	}
	return nil
}

func SetWeeklySchedule(snap *model.Snapshot, child string, day model.Weekday, ids []string) (string, error) {
	d, err := model.ParseWeekday(string(day))
	if err != nil {
		return "", InvalidError{Msg: err.Error()}
	}
	c, err := findChild(snap, child)
	if err != nil {
		return "", err
	}
	if err := checkIDs(snap, c, ids, c.WeeklySchedule[d]); err != nil {
		return "", err
	}
	c.WeeklySchedule[d] = dedupe(ids)
	return fmt.Sprintf("set %s schedule for %s", d, child), nil
}

// AddException stores (or replaces) the list for one date. An empty list is a day off.
// The date's current list, or its weekday list when there is none yet, may be saved
// with any stale IDs it carries.
func AddException(snap *model.Snapshot, child, date string, ids []string) (string, error) {
	t, err := model.ParseDate(date)
	if err != nil {
		return "", InvalidError{Msg: err.Error()}
	}
	c, err := findChild(snap, child)
	if err != nil {
		return "", err
	}
	seed, ok := c.Exceptions[date]
	if !ok {
		seed = c.WeeklySchedule[model.WeekdayOf(t)]
	}
	if err := checkIDs(snap, c, ids, seed); err != nil {
		return "", err
	}
	c.Exceptions[date] = dedupe(ids)
	return fmt.Sprintf("set exception for %s on %s", child, date), nil
}

func RemoveException(snap *model.Snapshot, child, date string) (string, error) {
	c, err := findChild(snap, child)
	if err != nil {
		return "", err
	}
	if !c.HasException(date) {
		return "", NotFoundError{Kind: "exception", ID: child + " " + date}
	}
	delete(c.Exceptions, date)
	return fmt.Sprintf("removed exception for %s on %s", child, date), nil
}

func SetSwitchoverTime(snap *model.Snapshot, hhmm string) (string, error) {
	norm, err := model.NormalizeSwitchover(hhmm)
	if err != nil {
		return "", InvalidError{Msg: err.Error()}
	}
	snap.SwitchoverTime = norm
	return fmt.Sprintf("set switchover time to %s", norm), nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
