// Package uploadhttp реализует HTTP-интерфейс сервиса возобновляемой загрузки частями.
// Основные эндпоинты:
//   - GET /uploaded-chunks?hash={id} — индексы уже принятых частей (для докачки).
//   - POST /upload — multipart: hash, chunkIndex, filename и файл части в поле file.
//   - POST /merge — JSON {"filename","hash"}: склеивает части и удаляет каталог сессии.
//   - POST /admin/gc — вручную запускает сбор брошенных сессий.
//   - GET / и GET /health — проверки живости и статистика хранилища.
package uploadhttp
