package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DenisKhanov/KrafloBot/internal/tg_bot/constant"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

var (
	monthNames = [...]string{"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
		"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro"}
	weekdayNames = [...]string{"S", "T", "Q", "Q", "S", "S", "D"} // Monday first
)

// today returns the current day at midnight UTC.
func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// calendarKeyboard renders one month as an inline keyboard. Days before minDate are not
// selectable and navigation never goes to a month that ends before it.
func calendarKeyboard(month, minDate time.Time) tgbotapi.InlineKeyboardMarkup {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	noop := func(text string) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(text, constant.CALLBACK_CALENDAR_NOP)
	}

	prev := noop(" ")
	if lastOfPrev := first.AddDate(0, 0, -1); minDate.IsZero() || !lastOfPrev.Before(minDate) {
		prev = tgbotapi.NewInlineKeyboardButtonData("«", calendarNavData(first.AddDate(0, -1, 0), minDate))
	}
	next := tgbotapi.NewInlineKeyboardButtonData("»", calendarNavData(first.AddDate(0, 1, 0), minDate))
	title := fmt.Sprintf("%s %d", monthNames[first.Month()-1], first.Year())

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(prev, noop(title), next),
	}
	header := make([]tgbotapi.InlineKeyboardButton, 0, len(weekdayNames))
	for _, name := range weekdayNames {
		header = append(header, noop(name))
	}
	rows = append(rows, header)

	// Monday is column 0.
	offset := (int(first.Weekday()) + 6) % 7
	week := make([]tgbotapi.InlineKeyboardButton, 0, 7)
	for i := 0; i < offset; i++ {
		week = append(week, noop(" "))
	}
	for day := first; day.Month() == first.Month(); day = day.AddDate(0, 0, 1) {
		label := strconv.Itoa(day.Day())
		if !minDate.IsZero() && day.Before(minDate) {
			week = append(week, noop("·"))
		} else {
			week = append(week, tgbotapi.NewInlineKeyboardButtonData(label, constant.CALLBACK_CALENDAR_DAY+day.Format(dayLayout)))
		}
		if len(week) == 7 {
			rows = append(rows, week)
			week = make([]tgbotapi.InlineKeyboardButton, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, noop(" "))
		}
		rows = append(rows, week)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// calendarNavData encodes a month switch as cal:nav:<month>|<minDate>.
func calendarNavData(month, minDate time.Time) string {
	data := constant.CALLBACK_CALENDAR_NAV + month.Format(monthLayout) + "|"
	if !minDate.IsZero() {
		data += minDate.Format(dayLayout)
	}
	return data
}

// parseCalendarNav decodes the data built by calendarNavData.
func parseCalendarNav(data string) (month, minDate time.Time, ok bool) {
	raw, found := strings.CutPrefix(data, constant.CALLBACK_CALENDAR_NAV)
	if !found {
		return time.Time{}, time.Time{}, false
	}
	monthPart, minPart, _ := strings.Cut(raw, "|")
	month, err := time.Parse(monthLayout, monthPart)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	if minPart != "" {
		if minDate, err = time.Parse(dayLayout, minPart); err != nil {
			return time.Time{}, time.Time{}, false
		}
	}
	return month, minDate, true
}
