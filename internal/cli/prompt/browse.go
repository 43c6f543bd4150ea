package prompt

import (
	"github.com/manifoldco/promptui"
)

// Action is a step chosen while browsing a feed interactively.
type Action int

const (
	ActionNext Action = iota
	ActionRetry
	ActionRefresh
	ActionQuit
)

// String returns the menu label of the action.
func (a Action) String() string {
	switch a {
	case ActionNext:
		return "Next page"
	case ActionRetry:
		return "Retry page"
	case ActionRefresh:
		return "Refresh from start"
	case ActionQuit:
		return "Quit"
	default:
		return "unknown"
	}
}

type actionItem struct {
	Label       string
	Description string
	Action      Action
}

// BrowseActions lists the menu entries for the current state. The next
// page entry is omitted once the feed reported its end; the retry entry is
// offered after a page failed on the network.
func BrowseActions(hasMore, canRetry bool) []Action {
	actions := make([]Action, 0, 4)
	if hasMore {
		actions = append(actions, ActionNext)
	}
	if canRetry {
		actions = append(actions, ActionRetry)
	}
	return append(actions, ActionRefresh, ActionQuit)
}

func actionDescription(a Action) string {
	switch a {
	case ActionNext:
		return "load the page after the last item"
	case ActionRetry:
		return "request the failed page again, keeping loaded posts"
	case ActionRefresh:
		return "start a new session and reload the first page"
	default:
		return "leave the browser"
	}
}

// SelectAction shows the browse menu and returns the chosen action.
func SelectAction(label string, hasMore, canRetry bool) (Action, error) {
	actions := BrowseActions(hasMore, canRetry)
	items := make([]actionItem, len(actions))
	for i, a := range actions {
		items[i] = actionItem{Label: a.String(), Description: actionDescription(a), Action: a}
	}

	s := promptui.Select{
		Label: label,
		Items: items,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "> {{ .Label | cyan }}",
			Inactive: "  {{ .Label | white }}",
			Selected: "* {{ .Label | green }}",
			Details:  `{{ "Description:" | faint }}	{{ .Description }}`,
		},
		Size: len(items),
	}

	i, _, err := s.Run()
	if err != nil {
		return ActionQuit, wrapError(err)
	}
	return items[i].Action, nil
}
