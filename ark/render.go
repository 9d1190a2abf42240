package ark

import (
	"fmt"
	"sort"
	"strings"

	"mod-ark/domain"

	"github.com/olekukonko/tablewriter"
)

// RenderPlan formats a restore plan as the text shown before confirmation.
func RenderPlan(plan domain.RestorePlan) string {
	var b strings.Builder

	b.WriteString("Planned subscription changes:\n")
	if plan.IsNoop() {
		b.WriteString("  (none, subscriptions already match)\n")
	}
	for _, mod := range plan.ToSubscribe {
		fmt.Fprintf(&b, "  + %s (%d)\n", mod.DisplayName, mod.ExternalID)
	}
	for _, id := range plan.ToUnsubscribe {
		fmt.Fprintf(&b, "  - %d\n", id)
	}

	b.WriteString("Planned mod order & states:\n")
	states := append([]domain.ModState(nil), plan.CombinedStates...)
	sort.SliceStable(states, func(i, j int) bool { return states[i].OrderIndex < states[j].OrderIndex })

	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"Order", "Name", "State"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	for _, state := range states {
		status := "Disabled"
		if state.Enabled {
			status = "Enabled"
		}
		table.Append([]string{fmt.Sprintf("%3d", state.OrderIndex), state.Name, status})
	}
	table.Render()

	return b.String()
}

func sortSubscribed(mods []domain.SubscribedMod) {
	sort.Slice(mods, func(i, j int) bool { return mods[i].ExternalID < mods[j].ExternalID })
}
