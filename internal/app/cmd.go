package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandCreateAdmin は管理者アカウントを作成または更新する。
	CommandCreateAdmin Command = "create-admin"
	// CommandCleanup は孤立画像ブロブの削除を1回実行する。
	CommandCleanup Command = "cleanup"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch Command(args[0]) {
	case CommandServe, CommandMigrate, CommandHealthcheck, CommandCreateAdmin, CommandCleanup:
		return Command(args[0])
	default:
		return CommandServe
	}
}

// AdminSeed はcreate-adminサブコマンドの引数。
type AdminSeed struct {
	Username string
	Password string
	FullName string
}

// ParseAdminSeed は "create-admin <username> <password> [full_name]" の引数を解析する。
// argsにはサブコマンド名を含む引数全体を渡す。
func ParseAdminSeed(args []string) (AdminSeed, bool) {
	if len(args) < 3 || args[1] == "" || args[2] == "" {
		return AdminSeed{}, false
	}
	seed := AdminSeed{Username: args[1], Password: args[2], FullName: args[1]}
	if len(args) > 3 && args[3] != "" {
		seed.FullName = args[3]
	}
	return seed, true
}
