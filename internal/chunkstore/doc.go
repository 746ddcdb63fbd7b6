// Package chunkstore хранит части загружаемых файлов на локальном диске.
//
// Раскладка каталога:
//   - <root>/<sessionID>/<index> — одна часть на индекс, имя файла — десятичный индекс;
//   - <root>/.incoming/<uuid>.part — принятые, но ещё не закреплённые за сессией данные.
//
// Часть появляется под своим итоговым именем только через rename из .incoming,
// поэтому листинг никогда не видит недописанный файл.
package chunkstore
