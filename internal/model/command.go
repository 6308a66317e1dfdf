package model

import (
	"errors"
	"fmt"
	"strings"
)

// Op names one logical host operation.
type Op string

const (
	OpAddChild          Op = "add_child"
	OpRemoveChild       Op = "remove_child"
	OpAddItem           Op = "add_item"
	OpAddLibraryItem    Op = "add_library_item"
	OpRemoveItem        Op = "remove_item"
	OpRemoveLibraryItem Op = "remove_library_item"
	OpSetWeeklySchedule Op = "set_weekly_schedule"
	OpAddException      Op = "add_exception"
	OpRemoveException   Op = "remove_exception"

	OpUpdateItem        Op = "update_item"
	OpUpdateLibraryItem Op = "update_library_item"
	OpAssignLibraryItem Op = "assign_library_item"
	OpSetSwitchoverTime Op = "set_switchover_time"
)

// Command is a single atomic intent sent to the host. Only the fields relevant to Op
// are set.
type Command struct {
	ID string `json:"id,omitempty"`
	Op Op     `json:"op"`

	Name      string   `json:"name,omitempty"`
	ChildName string   `json:"child_name,omitempty"`
	ItemID    string   `json:"item_id,omitempty"`
	ItemName  string   `json:"item_name,omitempty"`
	Image     *string  `json:"image,omitempty"`
	Day       Weekday  `json:"day,omitempty"`
	Date      string   `json:"date,omitempty"`
	ItemIDs   []string `json:"item_ids,omitempty"`
	Time      string   `json:"time,omitempty"`
}

func AddChild(name string) Command { return Command{Op: OpAddChild, Name: name} }

func RemoveChild(name string) Command { return Command{Op: OpRemoveChild, Name: name} }

func AddItem(child, itemID, itemName, image string) Command {
	return Command{Op: OpAddItem, ChildName: child, ItemID: itemID, ItemName: itemName, Image: &image}
}

func AddLibraryItem(itemID, itemName, image string) Command {
	return Command{Op: OpAddLibraryItem, ItemID: itemID, ItemName: itemName, Image: &image}
}

func RemoveItem(child, itemID string) Command {
	return Command{Op: OpRemoveItem, ChildName: child, ItemID: itemID}
}

func RemoveLibraryItem(itemID string) Command {
	return Command{Op: OpRemoveLibraryItem, ItemID: itemID}
}

func SetWeeklySchedule(child string, day Weekday, itemIDs []string) Command {
	return Command{Op: OpSetWeeklySchedule, ChildName: child, Day: day, ItemIDs: append([]string{}, itemIDs...)}
}

func AddException(child, date string, itemIDs []string) Command {
	return Command{Op: OpAddException, ChildName: child, Date: date, ItemIDs: append([]string{}, itemIDs...)}
}

func RemoveException(child, date string) Command {
	return Command{Op: OpRemoveException, ChildName: child, Date: date}
}

// Validate checks that the fields required by Op are present. It does not consult
// any state.
func (c Command) Validate() error {
	need := func(field, v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s: missing %s", c.Op, field)
		}
		return nil
	}
	switch c.Op {
	case OpAddChild, OpRemoveChild:
		return need("name", c.Name)
	case OpAddItem:
		return errors.Join(need("child_name", c.ChildName), need("item_id", c.ItemID), need("item_name", c.ItemName))
	case OpAddLibraryItem:
		return errors.Join(need("item_id", c.ItemID), need("item_name", c.ItemName))
	case OpRemoveItem, OpUpdateItem, OpAssignLibraryItem:
		return errors.Join(need("child_name", c.ChildName), need("item_id", c.ItemID))
	case OpRemoveLibraryItem, OpUpdateLibraryItem:
		return need("item_id", c.ItemID)
	case OpSetWeeklySchedule:
		if err := need("child_name", c.ChildName); err != nil {
			return err
		}
		_, err := ParseWeekday(string(c.Day))
		return err
	case OpAddException, OpRemoveException:
		if err := need("child_name", c.ChildName); err != nil {
			return err
		}
		_, err := ParseDate(c.Date)
		return err
	case OpSetSwitchoverTime:
		return need("time", c.Time)
	case "":
		return errors.New("missing op")
	default:
		return fmt.Errorf("unknown op: %s", c.Op)
	}
}

// Subject returns the child the command targets, or "" for shared/global operations.
func (c Command) Subject() string {
	if c.Op == OpAddChild || c.Op == OpRemoveChild {
		return c.Name
	}
	return c.ChildName
}
