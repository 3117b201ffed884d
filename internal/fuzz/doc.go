
// Package fuzztests houses Go fuzz harnesses that exercise the inspection
// pipeline (source -> parser -> analysis -> fix). Its goal is to smoke test
// robustness and guard against panics or broken trees on arbitrary inputs.
//
// Назначение: запускать fuzz-обработчики, которые загружают байты в FileSet и
// прогоняют их через парсер, правила и движок исправлений.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/source, internal/javasrc, internal/analysis,
// internal/rules, internal/fix, internal/testkit.

package fuzztests
