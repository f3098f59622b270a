package telegram

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"kecarajocomer/internal/metrics"
	"kecarajocomer/internal/pantry"
	"kecarajocomer/internal/shopping"
)

var categoryLabels = map[shopping.Category]string{
	shopping.CategoryVerduleria: "🥬 Verdulería",
	shopping.CategoryCarniceria: "🥩 Carnicería",
	shopping.CategoryAlmacen:    "🥫 Almacén",
	shopping.CategoryPanaderia:  "🥖 Panadería",
	shopping.CategoryLacteos:    "🧀 Lácteos",
	shopping.CategoryLimpieza:   "🧽 Limpieza",
	shopping.CategoryOtros:      "📦 Otros",
}

func formatQuantity(q float64, unit string) string {
	return strings.TrimSpace(strconv.FormatFloat(q, 'f', -1, 64) + " " + html.EscapeString(unit))
}

// formatShoppingList renders the list grouped by category. Bought items
// are struck through.
func formatShoppingList(list shopping.GeneratedList) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 <b>Lista de compras</b> (%s al %s)\n",
		list.RangoFechas.Desde.Format("02/01"), list.RangoFechas.Hasta.Format("02/01"))

	if list.TotalItems == 0 {
		sb.WriteString("\nNo hace falta comprar nada 🎉")
		return sb.String()
	}

	for _, cat := range shopping.Categories {
		items := list.PorCategoria[cat]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n<b>%s</b>\n", categoryLabels[cat])
		for _, it := range items {
			line := fmt.Sprintf("%s: %s", html.EscapeString(it.Nombre), formatQuantity(it.Cantidad, it.Unidad))
			if it.Comprado {
				line = "<s>" + line + "</s>"
			}
			fmt.Fprintf(&sb, "• %s\n", line)
		}
	}
	fmt.Fprintf(&sb, "\n%d productos", list.TotalItems)
	return sb.String()
}

func formatPantryLine(it pantry.Item, now time.Time) string {
	line := fmt.Sprintf("%s: %s", html.EscapeString(it.Name), formatQuantity(it.Quantity, it.Unit))
	if it.ExpiresAt != nil {
		if it.Expired(now) {
			line += " (vencido)"
		} else {
			line += " (vence " + it.ExpiresAt.Format("02/01") + ")"
		}
	}
	return line
}

func formatPantry(title string, items []pantry.Item, now time.Time) string {
	if len(items) == 0 {
		return title + "\n\nVacía."
	}
	var sb strings.Builder
	sb.WriteString(title + "\n\n")
	for _, it := range items {
		fmt.Fprintf(&sb, "• %s\n", formatPantryLine(it, now))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

var errAddUsage = errors.New("usage: <nombre> <cantidad> <unidad>")

// parseAddArgs reads "<name...> <quantity> <unit>". The name may contain
// spaces and a comma works as decimal separator.
func parseAddArgs(args string) (string, float64, string, error) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return "", 0, "", errAddUsage
	}
	n := len(fields)
	qty, err := strconv.ParseFloat(strings.Replace(fields[n-2], ",", ".", 1), 64)
	if err != nil || qty <= 0 {
		return "", 0, "", errAddUsage
	}
	return strings.Join(fields[:n-2], " "), qty, fields[n-1], nil
}

func formatUsage(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 <b>Uso y salud</b>\n\n🗓 <b>Actividad LLM</b>\n")
	if len(usage) == 0 {
		sb.WriteString("<i>Sin datos</i>\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• <b>%s</b>: %d tokens (%d ejecuciones)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 <b>Sistema</b>\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Base de datos: %s", health.DatabaseSize)
	return sb.String()
}
