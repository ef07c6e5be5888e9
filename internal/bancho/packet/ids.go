package packet

// ClientPacketID identifies an osu! -> server packet.
type ClientPacketID uint16

const (
	ClientChangeAction                ClientPacketID = 0
	ClientSendPublicMessage           ClientPacketID = 1
	ClientLogout                      ClientPacketID = 2
	ClientRequestStatusUpdate         ClientPacketID = 3
	ClientPing                        ClientPacketID = 4
	ClientStartSpectating             ClientPacketID = 16
	ClientStopSpectating              ClientPacketID = 17
	ClientSpectateFrames              ClientPacketID = 18
	ClientErrorReport                 ClientPacketID = 20
	ClientCantSpectate                ClientPacketID = 21
	ClientSendPrivateMessage          ClientPacketID = 25
	ClientPartLobby                   ClientPacketID = 29
	ClientJoinLobby                   ClientPacketID = 30
	ClientCreateMatch                 ClientPacketID = 31
	ClientJoinMatch                   ClientPacketID = 32
	ClientPartMatch                   ClientPacketID = 33
	ClientMatchChangeSlot             ClientPacketID = 38
	ClientMatchReady                  ClientPacketID = 39
	ClientMatchLock                   ClientPacketID = 40
	ClientMatchChangeSettings         ClientPacketID = 41
	ClientMatchStart                  ClientPacketID = 44
	ClientMatchScoreUpdate            ClientPacketID = 47
	ClientMatchComplete               ClientPacketID = 49
	ClientMatchChangeMods             ClientPacketID = 51
	ClientMatchLoadComplete           ClientPacketID = 52
	ClientMatchNoBeatmap              ClientPacketID = 54
	ClientMatchNotReady               ClientPacketID = 55
	ClientMatchFailed                 ClientPacketID = 56
	ClientMatchHasBeatmap             ClientPacketID = 59
	ClientMatchSkipRequest            ClientPacketID = 60
	ClientChannelJoin                 ClientPacketID = 63
	ClientBeatmapInfoRequest          ClientPacketID = 68
	ClientMatchTransferHost           ClientPacketID = 70
	ClientFriendAdd                   ClientPacketID = 73
	ClientFriendRemove                ClientPacketID = 74
	ClientMatchChangeTeam             ClientPacketID = 77
	ClientChannelPart                 ClientPacketID = 78
	ClientReceiveUpdates              ClientPacketID = 79
	ClientSetAwayMessage              ClientPacketID = 82
	ClientIrcOnly                     ClientPacketID = 84
	ClientUserStatsRequest            ClientPacketID = 85
	ClientMatchInvite                 ClientPacketID = 87
	ClientMatchChangePassword         ClientPacketID = 90
	ClientTournamentMatchInfoRequest  ClientPacketID = 93
	ClientUserPresenceRequest         ClientPacketID = 97
	ClientUserPresenceRequestAll      ClientPacketID = 98
	ClientToggleBlockNonFriendDms     ClientPacketID = 99
	ClientTournamentJoinMatchChannel  ClientPacketID = 108
	ClientTournamentLeaveMatchChannel ClientPacketID = 109
)

// ServerPacketID identifies a server -> osu! packet.
type ServerPacketID uint16

const (
	ServerUserID                  ServerPacketID = 5
	ServerSendMessage             ServerPacketID = 7
	ServerPong                    ServerPacketID = 8
	ServerHandleIrcChangeUsername ServerPacketID = 9
	ServerHandleIrcQuit           ServerPacketID = 10
	ServerUserStats               ServerPacketID = 11
	ServerUserLogout              ServerPacketID = 12
	ServerSpectatorJoined         ServerPacketID = 13
	ServerSpectatorLeft           ServerPacketID = 14
	ServerSpectateFrames          ServerPacketID = 15
	ServerVersionUpdate           ServerPacketID = 19
	ServerSpectatorCantSpectate   ServerPacketID = 22
	ServerGetAttention            ServerPacketID = 23
	ServerNotification            ServerPacketID = 24
	ServerUpdateMatch             ServerPacketID = 26
	ServerNewMatch                ServerPacketID = 27
	ServerDisposeMatch            ServerPacketID = 28
	ServerToggleBlockNonFriendDms ServerPacketID = 34
	ServerMatchJoinSuccess        ServerPacketID = 36
	ServerMatchJoinFail           ServerPacketID = 37
	ServerFellowSpectatorJoined   ServerPacketID = 42
	ServerFellowSpectatorLeft     ServerPacketID = 43
	ServerAllPlayersLoaded        ServerPacketID = 45
	ServerMatchStart              ServerPacketID = 46
	ServerMatchScoreUpdate        ServerPacketID = 48
	ServerMatchTransferHost       ServerPacketID = 50
	ServerMatchAllPlayersLoaded   ServerPacketID = 53
	ServerMatchPlayerFailed       ServerPacketID = 57
	ServerMatchComplete           ServerPacketID = 58
	ServerMatchSkip               ServerPacketID = 61
	ServerUnauthorized            ServerPacketID = 62
	ServerChannelJoinSuccess      ServerPacketID = 64
	ServerChannelInfo             ServerPacketID = 65
	ServerChannelKick             ServerPacketID = 66
	ServerChannelAutoJoin         ServerPacketID = 67
	ServerBeatmapInfoReply        ServerPacketID = 69
	ServerPrivileges              ServerPacketID = 71
	ServerFriendsList             ServerPacketID = 72
	ServerProtocolVersion         ServerPacketID = 75
	ServerMainMenuIcon            ServerPacketID = 76
	ServerMonitor                 ServerPacketID = 80
	ServerMatchPlayerSkipped      ServerPacketID = 81
	ServerUserPresence            ServerPacketID = 83
	ServerRestart                 ServerPacketID = 86
	ServerMatchInvite             ServerPacketID = 88
	ServerChannelInfoEnd          ServerPacketID = 89
	ServerMatchChangePassword     ServerPacketID = 91
	ServerSilenceEnd              ServerPacketID = 92
	ServerUserSilenced            ServerPacketID = 94
	ServerUserPresenceSingle      ServerPacketID = 95
	ServerUserPresenceBundle      ServerPacketID = 96
	ServerUserDmBlocked           ServerPacketID = 100
	ServerTargetIsSilenced        ServerPacketID = 101
	ServerVersionUpdateForced     ServerPacketID = 102
	ServerSwitchServer            ServerPacketID = 103
	ServerAccountRestricted       ServerPacketID = 104
	ServerRTX                     ServerPacketID = 105
	ServerMatchAbort              ServerPacketID = 106
	ServerSwitchTournamentServer  ServerPacketID = 107
)
