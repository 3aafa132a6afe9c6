package report

import (
	"fmt"
	"net/url"
	"strings"

	"barbapro/internal/core"
)

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// WhatsAppLink builds the wa.me deep link that opens a chat with the
// shop's contact number and the message pre-filled.
func WhatsAppLink(number, message string) string {
	return "https://wa.me/" + number + "?text=" + url.QueryEscape(message)
}

// brDate renders a date as dd/mm/yyyy for messages.
func brDate(d core.Date) string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day(), int(d.Month()), d.Year())
}

func brMonth(d core.Date) string {
	return fmt.Sprintf("%s de %d", monthNames[int(d.Month())-1], d.Year())
}

func reais(m core.Money) string {
	return m.String()
}

// Summary composes the full day+month WhatsApp summary for the shop.
func Summary(l *core.Ledger, today core.Date) string {
	var b strings.Builder
	b.WriteString("*RESUMO COMPLETO - BarbaPRO*\n\n")

	names := l.BarberNames()

	b.WriteString(fmt.Sprintf("📅 *HOJE (%s)*\n", brDate(today)))
	var dayTotal core.Money
	for _, barber := range names {
		day := BarberDay(l, barber, today)
		dayTotal = dayTotal.Add(day.Paid)
		b.WriteString(fmt.Sprintf("• %s: %s (Fiado: %s)\n", barber, reais(day.Paid), reais(day.Owed)))
	}
	b.WriteString(fmt.Sprintf("• Total: %s\n\n", reais(dayTotal)))

	b.WriteString(fmt.Sprintf("📊 *MÊS ATUAL (%s)*\n", brMonth(today)))
	var monthTotal core.Money
	for _, barber := range names {
		month := BarberMonth(l, barber, today)
		monthTotal = monthTotal.Add(month.Total)
		b.WriteString(fmt.Sprintf("• %s: %s\n", barber, reais(month.Total)))
	}
	b.WriteString(fmt.Sprintf("• Total Serviços: %s\n\n", reais(monthTotal)))

	b.WriteString("💰 *MENSALISTAS*\n")
	recurring := RecurringMonthTotals(l, today)
	var recurringTotal core.Money
	for _, barber := range names {
		stats := recurring[barber]
		recurringTotal = recurringTotal.Add(stats.Total)
		b.WriteString(fmt.Sprintf("• %s: %s (%d clientes)\n", barber, reais(stats.Total), stats.Count))
	}
	b.WriteString(fmt.Sprintf("• Total: %s\n\n", reais(recurringTotal)))

	expenses := MonthExpenseTotal(l, today)
	b.WriteString("💸 *DESPESAS DO MÊS*\n")
	b.WriteString(fmt.Sprintf("• Total: %s\n\n", reais(expenses)))

	b.WriteString("✅ *LUCRO ESTIMADO*\n")
	b.WriteString(fmt.Sprintf("• Total: %s", reais(NetProfit(l, today))))

	return b.String()
}

// PaymentsReport composes the settled-payments report for [from, to].
// The second return is false when the period has no payments and there
// is nothing to send.
func PaymentsReport(l *core.Ledger, from, to core.Date) (string, bool) {
	breakdown := PaymentBreakdown(l, from, to)
	received := breakdown.Received()
	if received.Cents == 0 {
		return "", false
	}

	period := "período " + brDate(from) + " a " + brDate(to)
	if from.Equal(to) {
		period = "dia " + brDate(from)
	}

	var b strings.Builder
	b.WriteString("*RELATÓRIO DE PAGAMENTOS*\n")
	b.WriteString("Período: " + period + "\n\n")

	b.WriteString("*TOTAIS POR BARBEIRO*\n")
	byBarber := PaidTotalsByBarber(l, from, to)
	for _, barber := range l.BarberNames() {
		b.WriteString(fmt.Sprintf("%s: %s\n", barber, reais(byBarber[barber])))
	}

	b.WriteString("\n*TOTAIS POR MÉTODO*\n")
	b.WriteString(fmt.Sprintf("💵 Dinheiro: %s\n", reais(breakdown.Cash)))
	b.WriteString(fmt.Sprintf("📱 PIX: %s\n", reais(breakdown.Pix)))
	b.WriteString(fmt.Sprintf("💳 Débito: %s\n", reais(breakdown.Debit)))
	b.WriteString(fmt.Sprintf("💳 Crédito: %s\n", reais(breakdown.Credit)))

	b.WriteString(fmt.Sprintf("\n💰 *TOTAL RECEBIDO: %s*", reais(received)))
	return b.String(), true
}
